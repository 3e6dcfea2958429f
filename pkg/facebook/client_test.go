package facebook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Istiyak4099/Airdrop/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "v25.0", 5*time.Second, logger.Discard())
}

func TestSendMessage(t *testing.T) {
	var (
		gotPath  string
		gotToken string
		gotBody  map[string]any
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("access_token")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"recipient_id":"PSID_1","message_id":"mid.1"}`))
	})

	err := c.SendMessage(context.Background(), "page-token", "PSID_1", "Hello!")
	require.NoError(t, err)

	assert.Equal(t, "/v25.0/me/messages", gotPath)
	assert.Equal(t, "page-token", gotToken)
	assert.Equal(t, map[string]any{"id": "PSID_1"}, gotBody["recipient"])
	assert.Equal(t, map[string]any{"text": "Hello!"}, gotBody["message"])
}

func TestSendMessageAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid OAuth access token.","type":"OAuthException","code":190}}`))
	})

	err := c.SendMessage(context.Background(), "bad", "PSID_1", "hi")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, 190, apiErr.Code)
	assert.Equal(t, "OAuthException", apiErr.Type)
	assert.Contains(t, apiErr.Error(), "Invalid OAuth access token.")
}

func TestSendMessageNonJSONError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	err := c.SendMessage(context.Background(), "tok", "PSID_1", "hi")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "upstream down")
}

func TestGetUserName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v25.0/PSID_1", r.URL.Path)
		assert.Equal(t, "name", r.URL.Query().Get("fields"))
		w.Write([]byte(`{"name":"Rahim Uddin","id":"PSID_1"}`))
	})

	name, err := c.GetUserName(context.Background(), "tok", "PSID_1")
	require.NoError(t, err)
	assert.Equal(t, "Rahim Uddin", name)
}

func TestGetUserNameEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"PSID_1"}`))
	})

	_, err := c.GetUserName(context.Background(), "tok", "PSID_1")
	assert.Error(t, err)
}
