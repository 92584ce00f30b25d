package notify

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/go-telegram/bot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/core"
)

func scamNote() *core.Notification {
	return &core.Notification{
		ChannelID:  core.NotificationChannelID(core.ChannelSMS),
		Title:      "Scam message detected",
		Message:    "Message from +1555 was flagged as a scam",
		BigText:    "Claim <your> prize",
		Importance: core.ImportanceHigh,
	}
}

type notifierFunc func(ctx context.Context, n *core.Notification) error

func (f notifierFunc) Notify(ctx context.Context, n *core.Notification) error { return f(ctx, n) }

func TestMultiNotifier(t *testing.T) {
	var calls []string
	ok := notifierFunc(func(context.Context, *core.Notification) error {
		calls = append(calls, "ok")
		return nil
	})
	failing := notifierFunc(func(context.Context, *core.Notification) error {
		calls = append(calls, "failing")
		return errors.New("relay down")
	})

	m := NewMultiNotifier(Named{"smtp", failing}, Named{"log", ok})
	err := m.Notify(context.Background(), scamNote())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp: relay down")
	// a failing backend does not stop the others
	assert.Equal(t, []string{"failing", "ok"}, calls)

	assert.NoError(t, NewMultiNotifier(Named{"log", NewLogNotifier(zap.NewNop())}).Notify(context.Background(), scamNote()))
}

type capturedMail struct {
	from string
	to   []string
	data string
}

type testBackend struct {
	mu   sync.Mutex
	mail []capturedMail
}

func (b *testBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &testSession{backend: b}, nil
}

type testSession struct {
	backend *testBackend
	current capturedMail
}

func (s *testSession) Reset()        { s.current = capturedMail{} }
func (s *testSession) Logout() error { return nil }

func (s *testSession) Mail(from string, _ *smtp.MailOptions) error {
	s.current.from = from
	return nil
}

func (s *testSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	if strings.HasSuffix(to, "@rejected.example") {
		return &smtp.SMTPError{Code: 550, Message: "no such user"}
	}
	s.current.to = append(s.current.to, to)
	return nil
}

func (s *testSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.current.data = string(data)
	s.backend.mu.Lock()
	s.backend.mail = append(s.backend.mail, s.current)
	s.backend.mu.Unlock()
	return nil
}

func startSMTPServer(t *testing.T) (*testBackend, string) {
	t.Helper()
	backend := &testBackend{}
	srv := smtp.NewServer(backend)
	srv.Domain = "localhost"
	srv.ReadTimeout = 5 * time.Second
	srv.WriteTimeout = 5 * time.Second
	srv.AllowInsecureAuth = true

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Close() })

	return backend, ln.Addr().String()
}

func TestSMTPNotifier(t *testing.T) {
	backend, addr := startSMTPServer(t)
	n := NewSMTPNotifier(addr, "monitor@local.example", []string{"me@home.example", "x@rejected.example"}, zap.NewNop())

	require.NoError(t, n.Notify(context.Background(), scamNote()))

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.Len(t, backend.mail, 1)
	got := backend.mail[0]
	assert.Equal(t, "monitor@local.example", got.from)
	assert.Equal(t, []string{"me@home.example"}, got.to)
	assert.Contains(t, got.data, "Subject: Scam message detected")
	assert.Contains(t, got.data, "Importance: high")
	assert.Contains(t, got.data, "Claim <your> prize")
}

func TestSMTPNotifierAllRejected(t *testing.T) {
	_, addr := startSMTPServer(t)
	n := NewSMTPNotifier(addr, "monitor@local.example", []string{"x@rejected.example"}, zap.NewNop())

	err := n.Notify(context.Background(), scamNote())
	assert.ErrorContains(t, err, "all recipients were rejected")
}

func TestSMTPNotifierNoRecipients(t *testing.T) {
	n := NewSMTPNotifier("127.0.0.1:1", "a@b.example", nil, zap.NewNop())
	assert.Error(t, n.Notify(context.Background(), scamNote()))
}

func TestTelegramNotifier(t *testing.T) {
	var gotChatID, gotText, gotParseMode string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/sendMessage"), r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotChatID = r.FormValue("chat_id")
		gotText = r.FormValue("text")
		gotParseMode = r.FormValue("parse_mode")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))
	}))
	defer srv.Close()

	n, err := NewTelegramNotifier("123:abc", 42, zap.NewNop(), bot.WithServerURL(srv.URL), bot.WithSkipGetMe())
	require.NoError(t, err)

	require.NoError(t, n.Notify(context.Background(), scamNote()))
	assert.Equal(t, "42", gotChatID)
	assert.Equal(t, "HTML", gotParseMode)
	assert.Contains(t, gotText, "<b>Scam message detected</b>")
	assert.Contains(t, gotText, "Claim &lt;your&gt; prize")
}

func TestTelegramNotifierRequiresConfig(t *testing.T) {
	_, err := NewTelegramNotifier("", 42, zap.NewNop())
	assert.Error(t, err)
	_, err = NewTelegramNotifier("123:abc", 0, zap.NewNop())
	assert.Error(t, err)
}

func TestFormatTelegramTruncates(t *testing.T) {
	note := scamNote()
	note.BigText = strings.Repeat("é", maxTelegramPreview)
	text := formatTelegram(note)
	assert.True(t, strings.HasSuffix(text, "...</pre>"))
	assert.Less(t, len(text), 4096+100)
}
