package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"neoslink/internal/app/chat"
	"neoslink/internal/app/format"
	"neoslink/internal/app/relay"
	"neoslink/internal/app/user"
	"neoslink/internal/configs"
)

type fakePlatform struct {
	mu      sync.Mutex
	sent    []string
	history []format.ChannelMessage
}

func (p *fakePlatform) SendChannelMessage(_ context.Context, _, content string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, content)
	return nil
}

func (p *fakePlatform) SendChannelMessageAsUser(context.Context, string, format.WebhookMessage) error {
	return nil
}

func (p *fakePlatform) FetchRecentMessages(context.Context, string, int) ([]format.ChannelMessage, error) {
	return p.history, nil
}

func (p *fakePlatform) EnsureWebhook(context.Context, string, string) (string, error) {
	return "", nil
}

func (p *fakePlatform) Sent() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.sent...)
}

type memStore struct{ data map[string]user.User }

func (m *memStore) Load(context.Context) (map[string]user.User, error) { return maps.Clone(m.data), nil }

func (m *memStore) Save(_ context.Context, users map[string]user.User) error {
	m.data = maps.Clone(users)
	return nil
}

type testServer struct {
	*httptest.Server
	platform *fakePlatform
	sessions *chat.Manager
}

func newTestServer(t *testing.T, cfg *configs.AppConfig) *testServer {
	t.Helper()

	registry := user.NewRegistry(&memStore{})
	if err := registry.Register(context.Background(), "U-alice", user.User{DiscordID: "1", DisplayName: "Alice"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	platform := &fakePlatform{
		history: []format.ChannelMessage{
			{AuthorName: "Bob", Presence: format.PresenceOnline, Body: "latest"},
			{AuthorName: "Bob", Presence: format.PresenceOnline, Body: "earlier"},
		},
	}
	sessions := chat.NewManager()
	core := relay.New(platform, sessions, registry, nil, relay.Options{LinkChannelID: "100", HistoryLimit: 15})

	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(Router(ctx, &AppDeps{Bridge: core, Config: cfg}))
	t.Cleanup(func() {
		sessions.Shutdown()
		srv.Close()
		cancel()
	})

	return &testServer{Server: srv, platform: platform, sessions: sessions}
}

func devConfig() *configs.AppConfig {
	return &configs.AppConfig{Environment: "development"}
}

func (s *testServer) dial(t *testing.T, path string, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("Dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	return string(data)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, devConfig())

	res, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	var body struct {
		Code    int               `json:"code"`
		Message string            `json:"message"`
		Data    map[string]string `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.StatusCode != http.StatusOK || body.Code != 0 || body.Data["status"] != "ok" {
		t.Errorf("health = %d %+v", res.StatusCode, body)
	}
}

func TestRootWithoutUpgradeAnswersHealth(t *testing.T) {
	srv := newTestServer(t, devConfig())

	res, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("GET / status = %d, want 200", res.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, devConfig())

	res, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(res.Body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "neoslink_sessions_active") {
		t.Error("metrics output missing neoslink_sessions_active")
	}
}

func TestWebSocket_HistoryThenRelay(t *testing.T) {
	srv := newTestServer(t, devConfig())
	conn := srv.dial(t, "/ws", nil)

	if got, want := readText(t, conn), "\n¦Bob (On) - earlier\n¦Bob (On) - latest"; got != want {
		t.Errorf("history = %q, want %q", got, want)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("U-nobody,1,hi")); err != nil {
		t.Fatal(err)
	}
	if got := readText(t, conn); got != format.UnverifiedReply {
		t.Errorf("unverified reply = %q", got)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("U-alice,2,hey")); err != nil {
		t.Fatal(err)
	}
	if got := readText(t, conn); got != "Alice (C) - hey" {
		t.Errorf("echo = %q", got)
	}
	if sent := srv.platform.Sent(); len(sent) != 1 || sent[0] != "Alice (C) - hey" {
		t.Errorf("channel received %q", sent)
	}
}

func TestWebSocket_StatusCountsSessions(t *testing.T) {
	srv := newTestServer(t, devConfig())
	conn := srv.dial(t, "/", nil)
	readText(t, conn)

	res, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	var body struct {
		Data relay.Status `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := relay.Status{Sessions: 1, RegisteredUsers: 1, LinkChannelID: "100"}
	if body.Data != want {
		t.Errorf("status = %+v, want %+v", body.Data, want)
	}

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for srv.sessions.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session not removed after client closed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocket_ForeignOriginRejectedInProduction(t *testing.T) {
	srv := newTestServer(t, &configs.AppConfig{
		Environment:    "production",
		AllowedOrigins: []string{"https://ok.example"},
	})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, res, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	if err == nil {
		t.Fatal("expected handshake to fail")
	}
	if res == nil || res.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v, want 403", res)
	}

	ok := srv.dial(t, "/ws", http.Header{"Origin": {"https://ok.example"}})
	readText(t, ok)
}
