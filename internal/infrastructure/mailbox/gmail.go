package mailbox

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"aegis-secure/internal/config"
	"aegis-secure/internal/domain/models"
	"aegis-secure/internal/domain/services"
	"aegis-secure/pkg/logger"
)

// GmailConnector exchanges OAuth credentials and opens Gmail readers
type GmailConnector struct {
	oauth  *oauth2.Config
	opts   []option.ClientOption
	logger *logger.Logger
}

// NewGmailConnector creates a connector for the configured OAuth client.
// Extra client options are appended to every Gmail service.
func NewGmailConnector(cfg config.GmailConfig, log *logger.Logger, opts ...option.ClientOption) *GmailConnector {
	return &GmailConnector{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{gmail.GmailReadonlyScope, "openid", "email"},
			Endpoint:     google.Endpoint,
		},
		opts:   opts,
		logger: log.WithComponent("gmail"),
	}
}

// AuthCodeURL returns the consent page URL requesting offline access
func (c *GmailConnector) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a session on the user's mailbox
func (c *GmailConnector) Exchange(ctx context.Context, code string) (*services.MailboxSession, error) {
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	reader, err := c.newReader(ctx, c.oauth.TokenSource(ctx, token))
	if err != nil {
		return nil, err
	}

	email, err := reader.ProfileEmail(ctx)
	if err != nil {
		return nil, err
	}

	return &services.MailboxSession{
		Email:        email,
		RefreshToken: token.RefreshToken,
		Reader:       reader,
	}, nil
}

// Resume refreshes an access token from refreshToken and opens a reader.
// The refresh happens eagerly so a revoked credential fails here.
func (c *GmailConnector) Resume(ctx context.Context, refreshToken string) (*services.MailboxSession, error) {
	src := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	if _, err := src.Token(); err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	reader, err := c.newReader(ctx, src)
	if err != nil {
		return nil, err
	}
	return &services.MailboxSession{RefreshToken: refreshToken, Reader: reader}, nil
}

func (c *GmailConnector) newReader(ctx context.Context, src oauth2.TokenSource) (*GmailReader, error) {
	opts := append([]option.ClientOption{option.WithTokenSource(src)}, c.opts...)
	return NewGmailReader(ctx, opts...)
}

// GmailReader lists and fetches messages of the authorized mailbox
type GmailReader struct {
	svc *gmail.Service
}

// NewGmailReader creates a reader from Gmail client options
func NewGmailReader(ctx context.Context, opts ...option.ClientOption) (*GmailReader, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return &GmailReader{svc: svc}, nil
}

// ListMessageIDs returns the ids of the newest messages
func (r *GmailReader) ListMessageIDs(ctx context.Context, maxResults int64) ([]string, error) {
	resp, err := r.svc.Users.Messages.List("me").MaxResults(maxResults).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list gmail messages: %w", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// GetMessage fetches the full message document
func (r *GmailReader) GetMessage(ctx context.Context, id string) (*models.ProviderMessage, error) {
	msg, err := r.svc.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get gmail message: %w", err)
	}
	return ConvertMessage(msg), nil
}

// ProfileEmail returns the mailbox address
func (r *GmailReader) ProfileEmail(ctx context.Context) (string, error) {
	profile, err := r.svc.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get gmail profile: %w", err)
	}
	return profile.EmailAddress, nil
}

// ConvertMessage maps a Gmail API message to the provider-neutral document
func ConvertMessage(m *gmail.Message) *models.ProviderMessage {
	return &models.ProviderMessage{
		ID:           m.Id,
		Snippet:      m.Snippet,
		InternalDate: m.InternalDate,
		Payload:      convertPart(m.Payload),
	}
}

func convertPart(p *gmail.MessagePart) *models.MessagePart {
	if p == nil {
		return nil
	}

	part := &models.MessagePart{MimeType: p.MimeType}
	if p.Body != nil {
		part.Data = p.Body.Data
	}
	if len(p.Headers) > 0 {
		part.Headers = make(map[string]string, len(p.Headers))
		for _, h := range p.Headers {
			if _, seen := part.Headers[h.Name]; !seen {
				part.Headers[h.Name] = h.Value
			}
		}
	}
	for _, child := range p.Parts {
		part.Parts = append(part.Parts, convertPart(child))
	}
	return part
}

var _ services.MailboxConnector = (*GmailConnector)(nil)
var _ services.MailboxReader = (*GmailReader)(nil)
