package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"aegis-secure/internal/domain/services"
	"aegis-secure/pkg/logger"
)

// multicastSender is the subset of the FCM client the transport needs
type multicastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// FCMTransport delivers notifications through Firebase Cloud Messaging
type FCMTransport struct {
	client multicastSender
	logger *logger.Logger
}

// NewFCMTransport initializes a Firebase app from service-account credentials.
// credentialsJSON takes precedence over credentialsPath.
func NewFCMTransport(ctx context.Context, credentialsJSON, credentialsPath string, log *logger.Logger) (*FCMTransport, error) {
	var opts []option.ClientOption
	switch {
	case credentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	case credentialsPath != "":
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}

	return newFCMTransport(client, log), nil
}

func newFCMTransport(client multicastSender, log *logger.Logger) *FCMTransport {
	return &FCMTransport{
		client: client,
		logger: log.WithComponent("fcm"),
	}
}

// SendMulticast sends one message per token and collects the failed tokens
func (t *FCMTransport) SendMulticast(ctx context.Context, n *services.PushNotification) (*services.DispatchResult, error) {
	resp, err := t.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens: n.Tokens,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("fcm multicast: %w", err)
	}

	result := &services.DispatchResult{
		SuccessCount: resp.SuccessCount,
		FailureCount: resp.FailureCount,
	}
	for i, r := range resp.Responses {
		if r == nil || r.Success || i >= len(n.Tokens) {
			continue
		}
		result.FailedTokens = append(result.FailedTokens, n.Tokens[i])
		if r.Error != nil {
			t.logger.Debug().Err(r.Error).Int("index", i).Msg("fcm token rejected")
		}
	}
	return result, nil
}

var _ services.PushTransport = (*FCMTransport)(nil)
