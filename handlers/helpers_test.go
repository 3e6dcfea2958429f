package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Istiyak4099/Airdrop/cache"
	"github.com/Istiyak4099/Airdrop/db"
	"github.com/Istiyak4099/Airdrop/pkg/ai"
	"github.com/Istiyak4099/Airdrop/pkg/facebook"
	"github.com/Istiyak4099/Airdrop/pkg/logger"
	"github.com/Istiyak4099/Airdrop/pkg/worker"
	"github.com/Istiyak4099/Airdrop/services"
)

const (
	testSecret   = "app-secret"
	testToken    = "verify-me"
	testAdminKey = "admin-key"
)

func discardLogger() *slog.Logger {
	return logger.Discard()
}

// fakePool runs submitted jobs inline unless err is set.
type fakePool struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (p *fakePool) Submit(name string, job worker.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.names = append(p.names, name)
	job(context.Background())
	return nil
}

type processed struct {
	event     facebook.Event
	requestID string
}

type fakeProcessor struct {
	mu    sync.Mutex
	calls []processed
}

func (f *fakeProcessor) Process(ctx context.Context, event facebook.Event, requestID string) services.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, processed{event: event, requestID: requestID})
	return services.Result{}
}

type fakeAnalyzer struct {
	err error
}

func (f *fakeAnalyzer) Sentiment(ctx context.Context, message string) (ai.SentimentResult, error) {
	if f.err != nil {
		return ai.SentimentResult{}, f.err
	}
	return ai.SentimentResult{Sentiment: "positive", Score: 0.8}, nil
}

func (f *fakeAnalyzer) DetectLanguage(ctx context.Context, message string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "Bengali", nil
}

func (f *fakeAnalyzer) SuggestReplies(ctx context.Context, message string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []string{"Yes", "No", "Maybe"}, nil
}

var errModelDown = errors.New("model down")

type testServer struct {
	handler   http.Handler
	pool      *fakePool
	processor *fakeProcessor
	analyzer  *fakeAnalyzer
	pages     *services.PageService
	profiles  *services.ProfileService
	convs     *services.ConversationService
}

type serverOptions struct {
	secret    string
	token     string
	adminKey   string
	rateLimit  int
	trustProxy bool
}

func defaultOptions() serverOptions {
	return serverOptions{secret: testSecret, token: testToken, adminKey: testAdminKey, rateLimit: 1000}
}

func newTestServer(t *testing.T, opts serverOptions) *testServer {
	t.Helper()
	logger := discardLogger()
	store := db.NewMemoryStore()
	c := cache.Disabled(logger)

	ts := &testServer{
		pool:      &fakePool{},
		processor: &fakeProcessor{},
		analyzer:  &fakeAnalyzer{},
		pages:     services.NewPageService(store, c, logger),
		profiles:  services.NewProfileService(store, c, logger),
		convs:     services.NewConversationService(store, logger),
	}
	ts.handler = NewRouter(RouterConfig{
		Webhook:        NewWebhookHandler(opts.token, opts.secret, ts.pool, ts.processor, logger),
		Admin:          NewAdminHandler(ts.pages, ts.profiles, ts.convs, ts.analyzer, logger),
		AdminKey:       opts.adminKey,
		AdminRateLimit: opts.rateLimit,
		TrustProxy:     opts.trustProxy,
		Logger:         logger,
	})
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func adminRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(adminKeyHeader, testAdminKey)
	return req
}
