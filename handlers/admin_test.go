package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminAuth(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		ts := newTestServer(t, defaultOptions())
		req := httptest.NewRequest(http.MethodGet, "/api/admin/profiles/u1", nil)

		rec := ts.do(req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.JSONEq(t, `{"error":"Unauthorized","code":"FORBIDDEN"}`, rec.Body.String())
	})

	t.Run("wrong key", func(t *testing.T) {
		ts := newTestServer(t, defaultOptions())
		req := httptest.NewRequest(http.MethodGet, "/api/admin/profiles/u1", nil)
		req.Header.Set(adminKeyHeader, "guess")

		assert.Equal(t, http.StatusForbidden, ts.do(req).Code)
	})

	t.Run("key not configured", func(t *testing.T) {
		opts := defaultOptions()
		opts.adminKey = ""
		ts := newTestServer(t, opts)
		req := httptest.NewRequest(http.MethodGet, "/api/admin/profiles/u1", nil)
		req.Header.Set(adminKeyHeader, "")

		assert.Equal(t, http.StatusForbidden, ts.do(req).Code)
	})
}

func TestStorePageToken(t *testing.T) {
	ts := newTestServer(t, defaultOptions())

	rec := ts.do(adminRequest(http.MethodPost, "/api/admin/facebook/page-token",
		`{"pageId":"p1","pageAccessToken":"tok","pageName":"Shop","ownerAccountId":"u1"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Page token stored successfully"}`, rec.Body.String())

	cred, err := ts.pages.Lookup(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "tok", cred.PageAccessToken)
	assert.Equal(t, "u1", cred.OwnerAccountID)
	assert.Equal(t, "Shop", cred.PageName)
}

func TestStorePageTokenLegacyOwnerField(t *testing.T) {
	ts := newTestServer(t, defaultOptions())

	rec := ts.do(adminRequest(http.MethodPost, "/api/admin/facebook/page-token",
		`{"pageId":"p2","pageAccessToken":"tok","userAccountId":"u9"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	cred, err := ts.pages.Lookup(context.Background(), "p2")
	require.NoError(t, err)
	assert.Equal(t, "u9", cred.OwnerAccountID)
}

func TestStorePageTokenValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"missing everything", `{}`, "Missing required fields: pageId, pageAccessToken, ownerAccountId"},
		{"missing token", `{"pageId":"p1","ownerAccountId":"u1"}`, "Missing required fields: pageAccessToken"},
		{"slash in page id", `{"pageId":"p/1","pageAccessToken":"t","ownerAccountId":"u1"}`, "Invalid value for pageId"},
		{"not json", `pageId=p1`, "Invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, defaultOptions())
			rec := ts.do(adminRequest(http.MethodPost, "/api/admin/facebook/page-token", tt.body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp struct {
				Error string `json:"error"`
				Code  string `json:"code"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantMsg, resp.Error)
			assert.Equal(t, "VALIDATION", resp.Code)
		})
	}
}

func TestProfileRoundTrip(t *testing.T) {
	ts := newTestServer(t, defaultOptions())

	rec := ts.do(adminRequest(http.MethodGet, "/api/admin/profiles/u1", ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Business profile not found","code":"NOT_FOUND"}`, rec.Body.String())

	rec = ts.do(adminRequest(http.MethodPut, "/api/admin/profiles/u1",
		`{"companyName":"Acme","industry":"Retail","brandVoice":{"professionalism":"left","verbosity":"neutral","formality":"right"}}`))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(adminRequest(http.MethodPut, "/api/admin/profiles/u1", `{"industry":"Grocery","followUpQuestions":true}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var merged map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &merged))
	assert.Equal(t, "Acme", merged["companyName"], "fields not in the patch survive")
	assert.Equal(t, "Grocery", merged["industry"])
	assert.Equal(t, true, merged["followUpQuestions"])

	rec = ts.do(adminRequest(http.MethodGet, "/api/admin/profiles/u1", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"companyName":"Acme"`)
}

func TestPutProfileRejectsBadBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown field", `{"companyName":"Acme","ownerEmail":"x@example.com"}`},
		{"bad voice", `{"brandVoice":{"formality":"sideways"}}`},
		{"malformed", `{"companyName":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, defaultOptions())
			rec := ts.do(adminRequest(http.MethodPut, "/api/admin/profiles/u1", tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			profile, err := ts.profiles.Get(context.Background(), "u1")
			require.NoError(t, err)
			assert.Nil(t, profile, "nothing is written")
		})
	}
}

func TestListConversationsAndMessages(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	ctx := context.Background()

	conv, err := ts.convs.FindOrCreate(ctx, "u1", "p1", "c1")
	require.NoError(t, err)
	for _, text := range []string{"first", "second", "third"} {
		_, err := ts.convs.AppendMessage(ctx, "u1", conv.ID, "user", text)
		require.NoError(t, err)
	}

	rec := ts.do(adminRequest(http.MethodGet, "/api/admin/accounts/u1/conversations", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	var convs struct {
		Conversations []struct {
			ID         string `json:"id"`
			CustomerID string `json:"customerId"`
		} `json:"conversations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &convs))
	require.Len(t, convs.Conversations, 1)
	assert.Equal(t, "p1_c1", convs.Conversations[0].ID)
	assert.Equal(t, "c1", convs.Conversations[0].CustomerID)

	rec = ts.do(adminRequest(http.MethodGet, "/api/admin/accounts/u1/conversations/p1_c1/messages?limit=2", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs struct {
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
	require.Len(t, msgs.Messages, 2)
	assert.Equal(t, "second", msgs.Messages[0].Content, "newest two, oldest first")
	assert.Equal(t, "third", msgs.Messages[1].Content)
}

func TestListEmptyAccount(t *testing.T) {
	ts := newTestServer(t, defaultOptions())

	rec := ts.do(adminRequest(http.MethodGet, "/api/admin/accounts/nobody/conversations", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"conversations":[]}`, rec.Body.String())
}

func TestListLimitValidation(t *testing.T) {
	ts := newTestServer(t, defaultOptions())

	for _, limit := range []string{"0", "-3", "ten"} {
		rec := ts.do(adminRequest(http.MethodGet, "/api/admin/accounts/u1/conversations?limit="+limit, ""))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", limit)
	}
}

func TestParseLimit(t *testing.T) {
	n, err := parseLimit(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, defaultListLimit, n)

	n, err = parseLimit(httptest.NewRequest(http.MethodGet, "/?limit=5000", nil))
	require.NoError(t, err)
	assert.Equal(t, maxListLimit, n)
}

func TestAIHelpers(t *testing.T) {
	ts := newTestServer(t, defaultOptions())

	rec := ts.do(adminRequest(http.MethodPost, "/api/admin/ai/sentiment", `{"message":"love it"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sentiment":"positive","score":0.8}`, rec.Body.String())

	rec = ts.do(adminRequest(http.MethodPost, "/api/admin/ai/language", `{"message":"kemon achen"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"language":"Bengali"}`, rec.Body.String())

	rec = ts.do(adminRequest(http.MethodPost, "/api/admin/ai/suggest-replies", `{"message":"open today?"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"quickReplies":["Yes","No","Maybe"]}`, rec.Body.String())
}

func TestAIHelpersErrors(t *testing.T) {
	ts := newTestServer(t, defaultOptions())

	rec := ts.do(adminRequest(http.MethodPost, "/api/admin/ai/sentiment", `{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing required fields: message")

	rec = ts.do(adminRequest(http.MethodPost, "/api/admin/ai/sentiment",
		`{"message":"`+strings.Repeat("x", 5001)+`"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.analyzer.err = errModelDown
	for _, path := range []string{"/api/admin/ai/sentiment", "/api/admin/ai/language", "/api/admin/ai/suggest-replies"} {
		rec = ts.do(adminRequest(http.MethodPost, path, `{"message":"hi"}`))
		assert.Equal(t, http.StatusBadGateway, rec.Code, path)
		assert.Contains(t, rec.Body.String(), `"code":"UPSTREAM"`)
		assert.NotContains(t, rec.Body.String(), "model down", "causes are not leaked")
	}
}

func TestAdminRateLimit(t *testing.T) {
	opts := defaultOptions()
	opts.rateLimit = 2
	ts := newTestServer(t, opts)

	for i := 0; i < 2; i++ {
		rec := ts.do(adminRequest(http.MethodGet, "/api/admin/accounts/u1/conversations", ""))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := ts.do(adminRequest(http.MethodGet, "/api/admin/accounts/u1/conversations", ""))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	other := adminRequest(http.MethodGet, "/api/admin/accounts/u1/conversations", "")
	other.RemoteAddr = "203.0.113.7:4000"
	assert.Equal(t, http.StatusOK, ts.do(other).Code, "limits are per client")

	spoofed := adminRequest(http.MethodGet, "/api/admin/accounts/u1/conversations", "")
	spoofed.Header.Set("X-Forwarded-For", "198.51.100.9")
	assert.Equal(t, http.StatusTooManyRequests, ts.do(spoofed).Code, "forwarded header ignored without a trusted proxy")

	// webhook routes are not limited
	verify := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=1", nil)
	assert.Equal(t, http.StatusOK, ts.do(verify).Code)
}

func TestAdminRateLimitCountsWrongKeys(t *testing.T) {
	opts := defaultOptions()
	opts.rateLimit = 2
	ts := newTestServer(t, opts)

	wrongKey := func() *http.Request {
		req := adminRequest(http.MethodGet, "/api/admin/accounts/u1/conversations", "")
		req.Header.Set(adminKeyHeader, "guess")
		return req
	}
	assert.Equal(t, http.StatusForbidden, ts.do(wrongKey()).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(wrongKey()).Code)
	assert.Equal(t, http.StatusTooManyRequests, ts.do(wrongKey()).Code)
	assert.Equal(t, http.StatusTooManyRequests, ts.do(adminRequest(http.MethodGet, "/api/admin/accounts/u1/conversations", "")).Code,
		"the right key does not reset the window")
}

func TestAdminRateLimitBehindProxy(t *testing.T) {
	opts := defaultOptions()
	opts.rateLimit = 1
	opts.trustProxy = true
	ts := newTestServer(t, opts)

	first := adminRequest(http.MethodGet, "/api/admin/accounts/u1/conversations", "")
	first.Header.Set("X-Forwarded-For", "198.51.100.1")
	require.Equal(t, http.StatusOK, ts.do(first).Code)

	second := adminRequest(http.MethodGet, "/api/admin/accounts/u1/conversations", "")
	second.Header.Set("X-Forwarded-For", "198.51.100.2")
	assert.Equal(t, http.StatusOK, ts.do(second).Code, "each forwarded client has its own window")
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
