package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/diogo/learnchat/internal/knowledge"
	"github.com/diogo/learnchat/internal/models"
	"github.com/diogo/learnchat/internal/responder"
)

type fakeReplier struct {
	reply *models.ChatReply
	err   error
	panic bool
	got   []string
}

func (f *fakeReplier) Reply(ctx context.Context, message string) (*models.ChatReply, error) {
	if f.panic {
		panic("replier exploded")
	}
	f.got = append(f.got, message)
	return f.reply, f.err
}

type fakeKnowledge struct {
	stats   *models.Stats
	entries []models.KnowledgeEntry
	err     error
}

func (f *fakeKnowledge) Stats(ctx context.Context) (*models.Stats, error) {
	return f.stats, f.err
}

func (f *fakeKnowledge) Export(ctx context.Context) ([]models.KnowledgeEntry, error) {
	return f.entries, f.err
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func TestChat_Success(t *testing.T) {
	rp := &fakeReplier{reply: &models.ChatReply{
		Status: models.StatusSuccess, Message: "Hello!", Source: models.SourceDemo, Learned: 1,
	}}
	s := New(rp, &fakeKnowledge{})

	rec := do(t, s.Handler(), http.MethodPost, "/api/chat", `{"message":"  hello  "}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Hello!", body["message"])
	assert.Equal(t, "demo", body["source"])
	assert.EqualValues(t, 1, body["learned"])
	assert.Equal(t, []string{"hello"}, rp.got)
}

func TestChat_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty message", `{"message":""}`, "Empty message"},
		{"whitespace message", `{"message":"   "}`, "Empty message"},
		{"missing message", `{}`, "Empty message"},
		{"invalid json", `{not json`, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rp := &fakeReplier{}
			rec := do(t, New(rp, &fakeKnowledge{}).Handler(), http.MethodPost, "/api/chat", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, tt.want, body["message"])
			assert.Empty(t, rp.got, "replier must not be called")
		})
	}
}

func TestChat_ReplierError(t *testing.T) {
	s := New(&fakeReplier{err: errors.New("database is locked")}, &fakeKnowledge{})

	rec := do(t, s.Handler(), http.MethodPost, "/api/chat", `{"message":"hi"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error: database is locked", decode(t, rec)["message"])
}

func TestChat_PanicBecomes500(t *testing.T) {
	s := New(&fakeReplier{panic: true}, &fakeKnowledge{})

	rec := do(t, s.Handler(), http.MethodPost, "/api/chat", `{"message":"hi"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "error", decode(t, rec)["status"])
}

func TestChat_RateLimited(t *testing.T) {
	rp := &fakeReplier{reply: &models.ChatReply{Message: "ok"}}
	s := New(rp, &fakeKnowledge{}, WithRateLimit(0.001, 2))
	h := s.Handler()

	for i := 0; i < 2; i++ {
		rec := do(t, h, http.MethodPost, "/api/chat", `{"message":"hi"}`)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	rec := do(t, h, http.MethodPost, "/api/chat", `{"message":"hi"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	body := decode(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "rate limited", body["message"])
	assert.Len(t, rp.got, 2)

	// Read-only endpoints are not limited
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/health", "").Code)
}

func TestChat_RateLimitIsPerClient(t *testing.T) {
	s := New(&fakeReplier{reply: &models.ChatReply{Message: "ok"}}, &fakeKnowledge{}, WithRateLimit(0.001, 1))
	h := s.Handler()

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi"}`))
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("198.51.100.1:1000"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.1:1001"))
	assert.Equal(t, http.StatusOK, send("198.51.100.2:1000"))
}

func chatFrom(h http.Handler, remote string, headers map[string]string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi"}`))
	req.RemoteAddr = remote
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestChat_RateLimitIgnoresForwardedHeadersFromUntrustedPeers(t *testing.T) {
	s := New(&fakeReplier{reply: &models.ChatReply{Message: "ok"}}, &fakeKnowledge{}, WithRateLimit(0.001, 1))
	h := s.Handler()

	accepted := 0
	for i := 0; i < 20; i++ {
		code := chatFrom(h, "203.0.113.9:4000", map[string]string{
			"X-Forwarded-For": fmt.Sprintf("10.0.0.%d", i+1),
			"X-Real-IP":       fmt.Sprintf("10.0.1.%d", i+1),
		})
		if code == http.StatusOK {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)
}

func TestChat_RateLimitTrustsConfiguredProxies(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"127.0.0.1", "10.1.0.0/16"})
	require.NoError(t, err)

	s := New(&fakeReplier{reply: &models.ChatReply{Message: "ok"}}, &fakeKnowledge{},
		WithRateLimit(0.001, 1), WithTrustedProxies(proxies...))
	h := s.Handler()

	xff := func(v string) map[string]string { return map[string]string{"X-Forwarded-For": v} }

	assert.Equal(t, http.StatusOK, chatFrom(h, "10.1.2.3:5000", xff("198.51.100.7, 10.1.2.3")))
	assert.Equal(t, http.StatusTooManyRequests, chatFrom(h, "127.0.0.1:5000", xff("198.51.100.7")))
	assert.Equal(t, http.StatusOK, chatFrom(h, "127.0.0.1:5000", map[string]string{"X-Real-IP": "198.51.100.8"}))
	// Garbage in the header falls back to the proxy address itself
	assert.Equal(t, http.StatusOK, chatFrom(h, "127.0.0.1:5001", xff("not-an-ip")))
	assert.Equal(t, http.StatusTooManyRequests, chatFrom(h, "127.0.0.1:5002", xff("<script>")))
}

func TestParseTrustedProxies(t *testing.T) {
	got, err := ParseTrustedProxies([]string{" 192.168.0.1 ", "", "10.0.0.0/8", "::1"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "192.168.0.1/32", got[0].String())
	assert.Equal(t, "10.0.0.0/8", got[1].String())
	assert.Equal(t, "::1/128", got[2].String())

	_, err = ParseTrustedProxies([]string{"10.0.0.0/99"})
	assert.Error(t, err)
	_, err = ParseTrustedProxies([]string{"proxy.local"})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	rec := do(t, New(&fakeReplier{}, &fakeKnowledge{}).Handler(), http.MethodGet, "/api/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, Version, body["version"])
}

func TestStats(t *testing.T) {
	kb := &fakeKnowledge{stats: &models.Stats{TotalLearnedQA: 2, TotalMessages: 4}}
	rec := do(t, New(&fakeReplier{}, kb).Handler(), http.MethodGet, "/api/stats", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 2, body["total_learned_qa"])
	assert.EqualValues(t, 4, body["total_messages"])
	assert.EqualValues(t, 0, body["total_conversations"])
}

func TestKnowledge(t *testing.T) {
	kb := &fakeKnowledge{entries: []models.KnowledgeEntry{{Q: "q", A: "a", Uses: 3}}}
	rec := do(t, New(&fakeReplier{}, kb).Handler(), http.MethodGet, "/api/knowledge", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var entries []models.KnowledgeEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Equal(t, []models.KnowledgeEntry{{Q: "q", A: "a", Uses: 3}}, entries)
}

func TestKnowledge_EmptyIsArray(t *testing.T) {
	rec := do(t, New(&fakeReplier{}, &fakeKnowledge{}).Handler(), http.MethodGet, "/api/knowledge", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestKnowledge_Error(t *testing.T) {
	kb := &fakeKnowledge{err: errors.New("closed")}
	h := New(&fakeReplier{}, kb).Handler()

	assert.Equal(t, http.StatusInternalServerError, do(t, h, http.MethodGet, "/api/knowledge", "").Code)
	assert.Equal(t, http.StatusInternalServerError, do(t, h, http.MethodGet, "/api/stats", "").Code)
}

func TestRouting(t *testing.T) {
	h := New(&fakeReplier{}, &fakeKnowledge{}).Handler()

	rec := do(t, h, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "error", decode(t, rec)["status"])

	rec = do(t, h, http.MethodGet, "/api/chat", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestID(t *testing.T) {
	h := New(&fakeReplier{}, &fakeKnowledge{}).Handler()

	rec := do(t, h, http.MethodGet, "/api/health", "")
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err, "a fresh request ID is assigned")

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(RequestIDHeader, id)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(RequestIDHeader), "a valid incoming ID is kept")

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "<script>", rec.Header().Get(RequestIDHeader))
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := New(&fakeReplier{}, &fakeKnowledge{}, WithLogger(zap.New(core))).Handler()

	do(t, h, http.MethodGet, "/api/health", "")

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/api/health", fields["path"])
	assert.EqualValues(t, 200, fields["status"])
	assert.NotEmpty(t, fields["request_id"])
}

func TestEndToEnd_LearnsAcrossRequests(t *testing.T) {
	ctx := context.Background()
	store, err := knowledge.Open(ctx, knowledge.InMemory)
	require.NoError(t, err)
	defer store.Close()

	srv := httptest.NewServer(New(responder.NewChain(store), store).Handler())
	defer srv.Close()

	post := func(msg string) map[string]any {
		resp, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(`{"message":"`+msg+`"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return out
	}

	first := post("hello there friend")
	assert.Equal(t, "demo", first["source"])

	second := post("Hello there friend")
	assert.Equal(t, "learned", second["source"])
	assert.Equal(t, first["message"], second["message"])

	resp, err := http.Get(srv.URL + "/api/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	var stats models.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 1, stats.TotalLearnedQA)
	assert.Equal(t, 4, stats.TotalMessages)
}

func TestListenAndServe_ShutsDownOnCancel(t *testing.T) {
	s := New(&fakeReplier{}, &fakeKnowledge{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	cancel()
	assert.NoError(t, <-done)
}
