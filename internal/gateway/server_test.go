package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func post(t *testing.T, h http.Handler, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSMSKeepsNewest(t *testing.T) {
	inbox := NewInbox()
	h := NewServer("", "", inbox, NewCallFeed(), zap.NewNop()).Handler()

	rec := post(t, h, "/v1/sms", "", `{"id":"2","sender":"+1555","body":"new","received_at":"2024-01-01T10:05:00Z"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	rec = post(t, h, "/v1/sms", "", `{"id":"1","sender":"+1555","body":"old","received_at":"2024-01-01T10:00:00Z"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	msg, ok := inbox.Latest()
	require.True(t, ok)
	assert.Equal(t, "2", msg.ID)
	assert.Equal(t, "new", msg.Body)
}

func TestCallPublishes(t *testing.T) {
	calls := NewCallFeed()
	var got []Message
	unsubscribe := calls.OnCall(func(m Message) { got = append(got, m) })

	s := NewServer("", "", NewInbox(), calls, zap.NewNop())
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	h := s.Handler()

	rec := post(t, h, "/v1/calls", "", `{"sender":"+1666"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, got, 1)
	assert.Equal(t, "+1666", got[0].Sender)
	assert.NotEmpty(t, got[0].ID)
	assert.Equal(t, fixed, got[0].ReceivedAt)

	unsubscribe()
	post(t, h, "/v1/calls", "", `{"sender":"+1777"}`)
	assert.Len(t, got, 1)
}

func TestRejectsBadRequests(t *testing.T) {
	h := NewServer("", "secret", NewInbox(), NewCallFeed(), zap.NewNop()).Handler()

	assert.Equal(t, http.StatusUnauthorized, post(t, h, "/v1/sms", "", `{"sender":"+1"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, post(t, h, "/v1/sms", "wrong", `{"sender":"+1"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, h, "/v1/sms", "secret", `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, h, "/v1/sms", "secret", `{"body":"no sender"}`).Code)
	assert.Equal(t, http.StatusAccepted, post(t, h, "/v1/sms", "secret", `{"sender":"+1"}`).Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/sms", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
