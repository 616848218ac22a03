package services

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"aegis-secure/internal/domain/models"
)

func enc(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestExtractBodyTopLevelPlainText(t *testing.T) {
	part := &models.MessagePart{MimeType: "text/plain", Data: enc("  hello there \n")}
	require.Equal(t, "hello there", ExtractBody(part))
}

func TestExtractBodyNestedFirstTextualLeaf(t *testing.T) {
	tree := &models.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*models.MessagePart{
			{MimeType: "image/png", Data: enc("binary")},
			{
				MimeType: "multipart/alternative",
				Parts: []*models.MessagePart{
					{MimeType: "text/html; charset=UTF-8", Data: enc("<p>win a prize</p>")},
					{MimeType: "text/plain", Data: enc("win a prize")},
				},
			},
		},
	}
	require.Equal(t, "<p>win a prize</p>", ExtractBody(tree))
}

func TestExtractBodyUnpaddedPayload(t *testing.T) {
	data := base64.RawURLEncoding.EncodeToString([]byte("ab?>"))
	require.Equal(t, "ab?>", ExtractBody(&models.MessagePart{MimeType: "text/plain", Data: data}))
}

func TestExtractBodyNoTextualLeaf(t *testing.T) {
	tree := &models.MessagePart{
		MimeType: "multipart/mixed",
		Parts:    []*models.MessagePart{{MimeType: "application/pdf", Data: enc("%PDF")}},
	}
	require.Empty(t, ExtractBody(tree))
	require.Empty(t, ExtractBody(nil))
}

func TestExtractBodyUndecodablePayloadIsEmpty(t *testing.T) {
	part := &models.MessagePart{MimeType: "text/plain", Data: "!!!not-base64!!!"}
	require.Empty(t, ExtractBody(part))
}

func TestExtractBodyDropsInvalidUTF8(t *testing.T) {
	data := base64.URLEncoding.EncodeToString([]byte{'o', 'k', 0xff, '!'})
	require.Equal(t, "ok!", ExtractBody(&models.MessagePart{MimeType: "text/plain", Data: data}))
}

func TestExtractBodyDepthBounded(t *testing.T) {
	leaf := &models.MessagePart{MimeType: "text/plain", Data: enc("deep")}
	root := leaf
	for i := 0; i < maxBodyDepth+5; i++ {
		root = &models.MessagePart{MimeType: "multipart/mixed", Parts: []*models.MessagePart{root}}
	}
	require.Empty(t, ExtractBody(root))
}
