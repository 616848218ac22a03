package services

import (
	"encoding/base64"
	"strings"

	"aegis-secure/internal/domain/models"
)

// maxBodyDepth bounds traversal of pathological part trees
const maxBodyDepth = 32

// ExtractBody returns the first plain-text or HTML body found in a depth-first
// walk of the part tree. Undecodable payloads yield an empty string.
func ExtractBody(part *models.MessagePart) string {
	return extractBody(part, 0)
}

func extractBody(part *models.MessagePart, depth int) string {
	if part == nil || depth > maxBodyDepth {
		return ""
	}

	if part.Data != "" && isTextMime(part.MimeType) {
		return decodeBodyData(part.Data)
	}

	for _, child := range part.Parts {
		if text := extractBody(child, depth+1); text != "" {
			return text
		}
	}
	return ""
}

func isTextMime(mimeType string) bool {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt == "text/plain" || mt == "text/html"
}

// decodeBodyData decodes base64url with or without padding. Invalid UTF-8
// sequences are dropped and surrounding whitespace trimmed.
func decodeBodyData(data string) string {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.ToValidUTF8(string(raw), ""))
}
