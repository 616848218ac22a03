package api

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"aegis-secure/internal/domain/models"
	"aegis-secure/internal/domain/services"
)

type memSMS struct {
	mu   sync.Mutex
	rows []*models.SMSMessage
}

func (m *memSMS) ExistsSMS(_ context.Context, userID, address string, dateMs int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.UserID == userID && r.Address == address && r.DateMs == dateMs {
			return true, nil
		}
	}
	return false, nil
}

func (m *memSMS) InsertSMS(_ context.Context, msg *models.SMSMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, msg)
	return nil
}

func (m *memSMS) ListByUser(_ context.Context, userID string, _ int) ([]*models.SMSMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.SMSMessage
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateMs > out[j].DateMs })
	return out, nil
}

func (m *memSMS) DeleteByUser(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	var removed int64
	for _, r := range m.rows {
		if r.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return removed, nil
}

func (m *memSMS) ListRiskScores(_ context.Context, userID string, _ *time.Time) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []float64
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, r.Score)
		}
	}
	return out, nil
}

type memMail struct {
	mu   sync.Mutex
	rows map[string]*models.EmailMessage
}

func (m *memMail) ExistsEmail(_ context.Context, userID, gmailID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[userID+"/"+gmailID]
	return ok, nil
}

func (m *memMail) UpsertEmail(_ context.Context, msg *models.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[msg.UserID+"/"+msg.GmailID] = msg
	return nil
}

func (m *memMail) ListByUser(_ context.Context, userID string, _ int) ([]*models.EmailMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.EmailMessage
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memMail) DeleteByUser(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for k, r := range m.rows {
		if r.UserID == userID {
			delete(m.rows, k)
			removed++
		}
	}
	return removed, nil
}

func (m *memMail) ListRiskScores(_ context.Context, userID string, _ *time.Time) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []float64
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, r.Score)
		}
	}
	return out, nil
}

type memHistory struct {
	sms  *memSMS
	mail *memMail
}

func (m *memHistory) DeleteHistory(ctx context.Context, userID string, channels []models.Channel) (map[models.Channel]int64, error) {
	removed := map[models.Channel]int64{}
	for _, channel := range channels {
		var (
			n   int64
			err error
		)
		switch channel {
		case models.ChannelSMS:
			n, err = m.sms.DeleteByUser(ctx, userID)
		case models.ChannelEmail:
			n, err = m.mail.DeleteByUser(ctx, userID)
		default:
			return nil, fmt.Errorf("unknown channel %q", channel)
		}
		if err != nil {
			return nil, err
		}
		removed[channel] = n
	}
	return removed, nil
}

type memProfiles struct {
	mu       sync.Mutex
	profiles map[string]*models.NotificationProfile
}

func (m *memProfiles) GetProfile(_ context.Context, userID string) (*models.NotificationProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles[userID], nil
}

func (m *memProfiles) profile(userID string) *models.NotificationProfile {
	p, ok := m.profiles[userID]
	if !ok {
		p = &models.NotificationProfile{UserID: userID, Preference: models.PreferenceAll}
		m.profiles[userID] = p
	}
	return p
}

func (m *memProfiles) AddPushToken(_ context.Context, userID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.profile(userID)
	for _, t := range p.PushTokens {
		if t == token {
			return nil
		}
	}
	p.PushTokens = append(p.PushTokens, token)
	return nil
}

func (m *memProfiles) SetPreference(_ context.Context, userID string, pref models.NotificationPreference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile(userID).Preference = pref
	return nil
}

type memAccounts struct {
	mu       sync.Mutex
	accounts map[string]*models.MailboxAccount
}

func (m *memAccounts) UpsertAccount(_ context.Context, a *models.MailboxAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.UserID+"/"+a.GmailEmail] = a
	return nil
}

func (m *memAccounts) GetAccount(_ context.Context, userID, gmailEmail string) (*models.MailboxAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[userID+"/"+gmailEmail], nil
}

func (m *memAccounts) ListAccounts(context.Context) ([]*models.MailboxAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.MailboxAccount, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	return out, nil
}

type fakeReader struct {
	docs map[string]*models.ProviderMessage
	ids  []string
}

func (f *fakeReader) ListMessageIDs(_ context.Context, maxResults int64) ([]string, error) {
	if int64(len(f.ids)) > maxResults {
		return f.ids[:maxResults], nil
	}
	return f.ids, nil
}

func (f *fakeReader) GetMessage(_ context.Context, id string) (*models.ProviderMessage, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return doc, nil
}

type fakeConnector struct {
	reader    *fakeReader
	badCode   string
	badToken  string
	lastState string
}

func (f *fakeConnector) AuthCodeURL(state string) string {
	f.lastState = state
	return "https://accounts.example/o/oauth2/auth?state=" + state
}

func (f *fakeConnector) Exchange(_ context.Context, code string) (*services.MailboxSession, error) {
	if code == f.badCode {
		return nil, errors.New("invalid_grant")
	}
	return &services.MailboxSession{Email: "me@gmail.com", RefreshToken: "rt-" + code, Reader: f.reader}, nil
}

func (f *fakeConnector) Resume(_ context.Context, refreshToken string) (*services.MailboxSession, error) {
	if refreshToken == f.badToken {
		return nil, errors.New("token revoked")
	}
	return &services.MailboxSession{RefreshToken: refreshToken, Reader: f.reader}, nil
}

type keywordClassifier struct {
	scores map[string]float64
}

func (c *keywordClassifier) Classify(_ context.Context, text string) models.RiskAssessment {
	if score, ok := c.scores[text]; ok {
		return models.RiskAssessment{Score: score, FinalDecision: "Scam"}
	}
	return models.NeutralAssessment()
}

type recordingTransport struct {
	mu   sync.Mutex
	sent []*services.PushNotification
}

func (t *recordingTransport) SendMulticast(_ context.Context, n *services.PushNotification) (*services.DispatchResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, n)
	return &services.DispatchResult{SuccessCount: len(n.Tokens)}, nil
}

func (t *recordingTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sent)
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func mailDoc(id, from, subject, body string) *models.ProviderMessage {
	return &models.ProviderMessage{
		ID:           id,
		Snippet:      subject,
		InternalDate: 1700000000000,
		Payload: &models.MessagePart{
			MimeType: "multipart/alternative",
			Headers:  map[string]string{"From": from, "Subject": subject},
			Parts: []*models.MessagePart{{
				MimeType: "text/plain",
				Data:     base64.RawURLEncoding.EncodeToString([]byte(body)),
			}},
		},
	}
}
