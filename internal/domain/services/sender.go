package services

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"

	"aegis-secure/pkg/logger"
)

var angleAddrPattern = regexp.MustCompile(`<([^<>]+)>`)

// ParseSender returns the address inside the last <...> segment of a From
// header such as `"Acme Bank" <alerts@acme.example>`. Headers without a
// bracket pair are returned trimmed as-is.
func ParseSender(header string) string {
	matches := angleAddrPattern.FindAllStringSubmatch(header, -1)
	if len(matches) == 0 {
		return strings.TrimSpace(header)
	}
	return strings.TrimSpace(matches[len(matches)-1][1])
}

// SenderPalette is the fixed set of display colors assigned to senders
var SenderPalette = []string{
	"#4285F4", "#EA4335", "#FBBC05", "#34A853", "#9C27B0",
	"#00ACC1", "#7E57C2", "#FF7043", "#F06292", "#4DB6AC",
	"#1A237E", "#B71C1C", "#1B5E20", "#0D47A1", "#F57F17",
	"#880E4F", "#004D40", "#311B92", "#BF360C", "#33691E",
	"#C62828", "#283593", "#00695C", "#4527A0", "#E64A19",
	"#1976D2", "#AD1457", "#00838F", "#5D4037", "#455A64",
}

// PaletteColor deterministically maps a sender to a palette entry
func PaletteColor(sender string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(sender)))
	return SenderPalette[h.Sum32()%uint32(len(SenderPalette))]
}

// SenderColorStore persists sender colors with first-writer-wins semantics
type SenderColorStore interface {
	// AssignIfAbsent stores color for sender unless one exists and returns the stored color
	AssignIfAbsent(ctx context.Context, sender, color string) (string, error)
}

// SenderColorResolver resolves the stable display color for a sender
type SenderColorResolver struct {
	store  SenderColorStore
	logger *logger.Logger
}

// NewSenderColorResolver creates a resolver; store may be nil for stateless use
func NewSenderColorResolver(store SenderColorStore, log *logger.Logger) *SenderColorResolver {
	return &SenderColorResolver{
		store:  store,
		logger: log.WithComponent("sender-colors"),
	}
}

// Resolve returns the sender's color, assigning one on first encounter.
// If the store is unavailable the deterministic palette color is used.
func (r *SenderColorResolver) Resolve(ctx context.Context, sender string) string {
	candidate := PaletteColor(sender)
	if r.store == nil || sender == "" {
		return candidate
	}

	color, err := r.store.AssignIfAbsent(ctx, sender, candidate)
	if err != nil {
		r.logger.Warn().Err(err).Str("sender", sender).Msg("failed to persist sender color")
		return candidate
	}
	return color
}
