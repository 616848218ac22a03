package push

import (
	"context"
	"fmt"

	"aegis-secure/internal/config"
	"aegis-secure/internal/domain/services"
	"aegis-secure/pkg/logger"
)

// NewTransport builds the transport selected by cfg.Provider.
// Provider "none" returns a nil transport, which makes every dispatch fail softly.
func NewTransport(ctx context.Context, cfg config.PushConfig, log *logger.Logger) (services.PushTransport, error) {
	switch cfg.Provider {
	case "fcm", "":
		t, err := NewFCMTransport(ctx, cfg.FirebaseCredentialJSON, cfg.FirebaseCredentialPath, log)
		if err != nil {
			return nil, err
		}
		return t, nil
	case "sns":
		t, err := NewSNSTransport(ctx, cfg.SNSRegion, cfg.SNSPlatformARN, log)
		if err != nil {
			return nil, err
		}
		return t, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown push provider %q", cfg.Provider)
	}
}
