package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipeed/mpbot/pkg/bus"
	"github.com/sipeed/mpbot/pkg/config"
	"github.com/sipeed/mpbot/pkg/logger"
	"github.com/sipeed/mpbot/pkg/robot"
)

// Signature of {token="token", timestamp="1234567890", nonce="nonce"}:
// sorted concatenation "1234567890noncetoken", SHA-1 hex digest below.
const (
	testToken     = "token"
	testTimestamp = "1234567890"
	testNonce     = "nonce"
	testSignature = "8fe7ef320b8079208b3912336096f4779c05f205"
)

func newTestServer(t *testing.T) (*Server, *robot.Robot) {
	t.Helper()
	cfg := config.Default()
	cfg.Token = testToken
	cfg.APIKey = "test-api-key"

	log := logger.New(io.Discard, logger.LevelError)
	rb := robot.New(robot.WithToken(testToken), robot.WithLogger(log))
	return NewServer(cfg, rb, nil, log), rb
}

func signedURL(path, extra string) string {
	u := path + "?timestamp=" + testTimestamp + "&nonce=" + testNonce + "&signature=" + testSignature
	if extra != "" {
		u += "&" + extra
	}
	return u
}

func TestEchoVerification(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	req := httptest.NewRequest(http.MethodGet, signedURL("/wechat", "echostr=verify-me"), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "verify-me", rec.Body.String())
}

func TestEchoRejectsBadSignature(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	req := httptest.NewRequest(http.MethodGet, "/wechat?timestamp=1&nonce=2&signature=bogus&echostr=x", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "x")
}

const pingXML = `<xml>
	<ToUserName><![CDATA[gh]]></ToUserName>
	<FromUserName><![CDATA[u1]]></FromUserName>
	<CreateTime>1700000000</CreateTime>
	<MsgType><![CDATA[text]]></MsgType>
	<Content><![CDATA[ping]]></Content>
	<MsgId>1</MsgId>
</xml>`

func TestMessageDispatchRepliesXML(t *testing.T) {
	s, rb := newTestServer(t)
	require.NoError(t, rb.Filter(robot.ReplyFunc(func() string { return "pong" }), "ping"))
	h := s.Handler()

	req := httptest.NewRequest(http.MethodPost, signedURL("/wechat", ""), strings.NewReader(pingXML))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/xml")
	body := rec.Body.String()
	assert.Contains(t, body, "<Content><![CDATA[pong]]></Content>")
	assert.Contains(t, body, "<ToUserName><![CDATA[u1]]></ToUserName>")
}

func TestMessageNoReplyIsEmptyOK(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	req := httptest.NewRequest(http.MethodPost, signedURL("/wechat", ""), strings.NewReader(pingXML))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestMessageRejectsBadSignature(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	req := httptest.NewRequest(http.MethodPost, "/wechat?timestamp=1&nonce=2&signature=bogus", strings.NewReader(pingXML))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMessageRejectsGarbageBody(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	req := httptest.NewRequest(http.MethodPost, signedURL("/wechat", ""), strings.NewReader("not xml"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestWSRequiresToken(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/ws", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWSBridgeStreamsDispatchRecords(t *testing.T) {
	s, _ := newTestServer(t)
	b := bus.New()
	defer b.Close()
	s.bus = b

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.hub.Run(ctx)
	go s.hub.RunBridge(ctx, b.Subscribe("ws-bridge"))

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws?token=test-api-key"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	// First frame is always the connection snapshot.
	_, first, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(first), `"type":"initial_state"`)

	b.Publish(bus.DispatchRecord{
		TraceID: "t1",
		Kind:    "text",
		Source:  "u1",
		Replied: true,
	})

	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	got := string(frame)
	assert.Contains(t, got, `"type":"dispatch"`)
	assert.Contains(t, got, `"trace_id":"t1"`)
	assert.Contains(t, got, `"replied":true`)
}

func TestGeneratedAPIKeyWhenUnset(t *testing.T) {
	cfg := config.Default()
	cfg.Token = testToken
	cfg.APIKey = ""

	log := logger.New(io.Discard, logger.LevelError)
	rb := robot.New(robot.WithToken(testToken), robot.WithLogger(log))
	s := NewServer(cfg, rb, nil, log)

	assert.NotEmpty(t, s.apiKey, "server must never run with open operational endpoints")
	assert.Empty(t, cfg.APIKey, "the generated key stays on the server, not in the caller's config")
}

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/ws", nil)
	req.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", extractToken(req))

	req = httptest.NewRequest(http.MethodGet, "/api/ws", nil)
	req.Header.Set("X-API-Key", "xyz")
	assert.Equal(t, "xyz", extractToken(req))

	req = httptest.NewRequest(http.MethodGet, "/api/ws?token=qqq", nil)
	assert.Equal(t, "qqq", extractToken(req))

	req = httptest.NewRequest(http.MethodGet, "/api/ws", nil)
	assert.Equal(t, "", extractToken(req))
}
