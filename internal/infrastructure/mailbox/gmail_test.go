package mailbox

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"aegis-secure/internal/domain/services"
)

func TestConvertMessageFeedsBodyExtraction(t *testing.T) {
	msg := &gmail.Message{
		Id:           "g1",
		Snippet:      "Your parcel",
		InternalDate: 1700000000000,
		Payload: &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "Courier <track@parcel.example>"},
				{Name: "Subject", Value: "Delivery failed"},
			},
			Parts: []*gmail.MessagePart{
				{MimeType: "text/plain", Body: &gmail.MessagePartBody{
					Data: base64.URLEncoding.EncodeToString([]byte("Pay the fee")),
				}},
			},
		},
	}

	doc := ConvertMessage(msg)
	require.Equal(t, "g1", doc.ID)
	require.Equal(t, int64(1700000000000), doc.InternalDate)
	require.Equal(t, "Courier <track@parcel.example>", doc.Header("from"))
	require.Equal(t, "Delivery failed", doc.Header("Subject"))
	require.Equal(t, "Pay the fee", services.ExtractBody(doc.Payload))
}

func TestGmailReaderAgainstFakeAPI(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "10", r.URL.Query().Get("maxResults"))
		_, _ = w.Write([]byte(`{"messages":[{"id":"a"},{"id":"b"}]}`))
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/a", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "full", r.URL.Query().Get("format"))
		_, _ = w.Write([]byte(`{"id":"a","snippet":"hi","internalDate":"1700000000001",
			"payload":{"mimeType":"text/plain","headers":[{"name":"From","value":"x@example.com"}],
			"body":{"data":"aGVsbG8"}}}`))
	})
	mux.HandleFunc("/gmail/v1/users/me/profile", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"emailAddress":"me@gmail.com"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	reader, err := NewGmailReader(ctx,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	ids, err := reader.ListMessageIDs(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, ids)

	doc, err := reader.GetMessage(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, int64(1700000000001), doc.InternalDate)
	require.Equal(t, "hello", services.ExtractBody(doc.Payload))

	email, err := reader.ProfileEmail(ctx)
	require.NoError(t, err)
	require.Equal(t, "me@gmail.com", email)
}

func TestAuthCodeURLRequestsOfflineAccess(t *testing.T) {
	c := NewGmailConnector(testGmailConfig(), nopLogger())
	url := c.AuthCodeURL("signed-state")
	require.Contains(t, url, "state=signed-state")
	require.Contains(t, url, "access_type=offline")
	require.Contains(t, url, "client_id=client-123")
}
