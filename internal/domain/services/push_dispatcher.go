package services

import (
	"context"
	"fmt"

	"github.com/spf13/cast"

	"aegis-secure/pkg/logger"
	"aegis-secure/pkg/metrics"
)

// PushNotification is a fan-out request for one alert
type PushNotification struct {
	Tokens []string
	Title  string
	Body   string
	Data   map[string]string
}

// DispatchResult reports per-token outcomes of a multicast
type DispatchResult struct {
	SuccessCount int      `json:"success_count"`
	FailureCount int      `json:"failure_count"`
	FailedTokens []string `json:"failed_tokens,omitempty"`
}

// PushTransport delivers a multicast notification through a push provider
type PushTransport interface {
	SendMulticast(ctx context.Context, n *PushNotification) (*DispatchResult, error)
}

// PushDispatcher fans notifications out to a user's device tokens
type PushDispatcher struct {
	transport PushTransport
	logger    *logger.Logger
}

// NewPushDispatcher creates a dispatcher; a nil transport drops every notification as failed
func NewPushDispatcher(transport PushTransport, log *logger.Logger) *PushDispatcher {
	return &PushDispatcher{
		transport: transport,
		logger:    log.WithComponent("push-dispatcher"),
	}
}

// Dispatch sends title/body/data to every token. It never returns an error:
// a transport failure is reported as all tokens failed.
func (d *PushDispatcher) Dispatch(ctx context.Context, tokens []string, title, body string, data map[string]any) DispatchResult {
	if len(tokens) == 0 {
		return DispatchResult{}
	}

	n := &PushNotification{
		Tokens: tokens,
		Title:  title,
		Body:   body,
		Data:   StringifyData(data),
	}

	if d.transport == nil {
		d.logger.Warn().Int("tokens", len(tokens)).Msg("no push transport configured")
		return d.record(DispatchResult{FailureCount: len(tokens), FailedTokens: tokens})
	}

	result, err := d.transport.SendMulticast(ctx, n)
	if err != nil || result == nil {
		d.logger.Warn().Err(err).Int("tokens", len(tokens)).Msg("push multicast failed")
		return d.record(DispatchResult{FailureCount: len(tokens), FailedTokens: tokens})
	}

	d.logger.Debug().
		Int("success", result.SuccessCount).
		Int("failure", result.FailureCount).
		Msg("push multicast sent")
	return d.record(*result)
}

func (d *PushDispatcher) record(r DispatchResult) DispatchResult {
	metrics.PushDeliveries.WithLabelValues("success").Add(float64(r.SuccessCount))
	metrics.PushDeliveries.WithLabelValues("failure").Add(float64(r.FailureCount))
	return r
}

// StringifyData coerces notification metadata to the string map push providers require
func StringifyData(data map[string]any) map[string]string {
	out := make(map[string]string, len(data))
	for k, v := range data {
		if v == nil {
			out[k] = ""
			continue
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			s = fmt.Sprint(v)
		}
		out[k] = s
	}
	return out
}
