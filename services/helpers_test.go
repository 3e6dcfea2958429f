package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Istiyak4099/Airdrop/cache"
	"github.com/Istiyak4099/Airdrop/db"
	"github.com/Istiyak4099/Airdrop/pkg/ai"
	"github.com/Istiyak4099/Airdrop/pkg/logger"
)

func discardLogger() *slog.Logger {
	return logger.Discard()
}

// clock advances one second on every call so stored timestamps are distinct.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type sentMessage struct {
	Token     string
	Recipient string
	Text      string
}

type fakeMessenger struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[string]error
	names   map[string]string
	lookups int
}

func (f *fakeMessenger) SendMessage(ctx context.Context, token, recipient, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[recipient]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentMessage{Token: token, Recipient: recipient, Text: text})
	return nil
}

func (f *fakeMessenger) GetUserName(ctx context.Context, token, psid string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if name, ok := f.names[psid]; ok {
		return name, nil
	}
	return "", fmt.Errorf("no name for %s", psid)
}

type fakeReplier struct {
	mu      sync.Mutex
	reqs    []ai.ReplyRequest
	panicOn string
}

func (f *fakeReplier) Generate(ctx context.Context, req ai.ReplyRequest) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOn != "" && req.Message == f.panicOn {
		panic("replier exploded")
	}
	f.reqs = append(f.reqs, req)
	return "reply to: " + req.Message
}

type harness struct {
	store     *db.MemoryStore
	pages     *PageService
	profiles  *ProfileService
	convs     *ConversationService
	assembler *ContextAssembler
	replier   *fakeReplier
	messenger *fakeMessenger
	processor *Processor
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := discardLogger()
	store := db.NewMemoryStore()
	c := cache.Disabled(logger)
	clk := newClock()

	h := &harness{
		store:     store,
		pages:     NewPageService(store, c, logger),
		profiles:  NewProfileService(store, c, logger),
		convs:     NewConversationService(store, logger),
		replier:   &fakeReplier{},
		messenger: &fakeMessenger{failFor: map[string]error{}, names: map[string]string{}},
	}
	h.pages.now = clk.Now
	h.convs.now = clk.Now
	h.assembler = NewContextAssembler(h.profiles, h.convs, DefaultHistoryLimit)
	h.processor = NewProcessor(ProcessorConfig{
		Pages:         h.pages,
		Conversations: h.convs,
		Assembler:     h.assembler,
		Replier:       h.replier,
		Messenger:     h.messenger,
		Cache:         c,
		Logger:        logger,
		FetchNames:    true,
	})
	return h
}
