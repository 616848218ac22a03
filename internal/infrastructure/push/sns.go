package push

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"

	"aegis-secure/internal/domain/services"
	"aegis-secure/pkg/logger"
)

type snsAPI interface {
	CreatePlatformEndpoint(ctx context.Context, in *awssns.CreatePlatformEndpointInput, optFns ...func(*awssns.Options)) (*awssns.CreatePlatformEndpointOutput, error)
	Publish(ctx context.Context, in *awssns.PublishInput, optFns ...func(*awssns.Options)) (*awssns.PublishOutput, error)
}

// SNSTransport delivers notifications through an SNS platform application
type SNSTransport struct {
	client      snsAPI
	platformARN string
	logger      *logger.Logger
}

// NewSNSTransport loads the default AWS credential chain for region
func NewSNSTransport(ctx context.Context, region, platformARN string, log *logger.Logger) (*SNSTransport, error) {
	if platformARN == "" {
		return nil, fmt.Errorf("sns platform application arn is required")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return newSNSTransport(awssns.NewFromConfig(cfg), platformARN, log), nil
}

func newSNSTransport(client snsAPI, platformARN string, log *logger.Logger) *SNSTransport {
	return &SNSTransport{
		client:      client,
		platformARN: platformARN,
		logger:      log.WithComponent("sns"),
	}
}

// SendMulticast resolves an endpoint per token and publishes to each one
func (t *SNSTransport) SendMulticast(ctx context.Context, n *services.PushNotification) (*services.DispatchResult, error) {
	payload, err := snsPayload(n)
	if err != nil {
		return nil, err
	}

	result := &services.DispatchResult{}
	for _, token := range n.Tokens {
		if err := t.publish(ctx, token, payload); err != nil {
			t.logger.Debug().Err(err).Msg("sns publish failed")
			result.FailureCount++
			result.FailedTokens = append(result.FailedTokens, token)
			continue
		}
		result.SuccessCount++
	}
	return result, nil
}

func (t *SNSTransport) publish(ctx context.Context, token, payload string) error {
	// CreatePlatformEndpoint is idempotent for an unchanged token
	ep, err := t.client.CreatePlatformEndpoint(ctx, &awssns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(t.platformARN),
		Token:                  aws.String(token),
	})
	if err != nil {
		return fmt.Errorf("create endpoint: %w", err)
	}

	_, err = t.client.Publish(ctx, &awssns.PublishInput{
		MessageStructure: aws.String("json"),
		Message:          aws.String(payload),
		TargetArn:        ep.EndpointArn,
	})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// snsPayload builds the per-protocol message document; the GCM entry must itself be a JSON string
func snsPayload(n *services.PushNotification) (string, error) {
	gcm, err := json.Marshal(map[string]any{
		"notification": map[string]string{
			"title": n.Title,
			"body":  n.Body,
		},
		"data": n.Data,
	})
	if err != nil {
		return "", fmt.Errorf("marshal gcm payload: %w", err)
	}

	raw, err := json.Marshal(map[string]string{
		"default": n.Body,
		"GCM":     string(gcm),
	})
	if err != nil {
		return "", fmt.Errorf("marshal sns payload: %w", err)
	}
	return string(raw), nil
}

var _ services.PushTransport = (*SNSTransport)(nil)
