package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visaprep-ai/backend/internal/models"
	"github.com/visaprep-ai/backend/internal/services"
	"github.com/visaprep-ai/backend/internal/utils"
)

type fakeSessions struct {
	mu        sync.Mutex
	known     map[string]bool
	getCalls  int
	processed [][]byte
	outcome   *services.AnswerOutcome
	err       error

	startResult *services.StartResult
	startErr    error
	submitErr   error
}

func (f *fakeSessions) Start(context.Context, models.VisaType, models.SubscriptionLevel, string) (*services.StartResult, error) {
	return f.startResult, f.startErr
}

func (f *fakeSessions) Get(_ context.Context, sessionID string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.known[sessionID] {
		return &models.Session{SessionID: sessionID}, nil
	}
	return nil, utils.E(utils.CodeNotFound, "fake.Get", "session not found", nil)
}

func (f *fakeSessions) SubmitAnswer(context.Context, string, string) (*services.AnswerOutcome, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return f.outcome, nil
}

func (f *fakeSessions) ProcessStreamedAnswer(_ context.Context, _ string, audio []byte) (*services.AnswerOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, append([]byte(nil), audio...))
	if f.err != nil {
		return nil, f.err
	}
	return f.outcome, nil
}

func (f *fakeSessions) processedCalls() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.processed...)
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newWSServer(t *testing.T, fake *fakeSessions, tweak func(*WSHandler)) (*WSHandler, *websocket.Conn) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewWSHandler(fake, testLogger())
	h.PingInterval = time.Minute // keep heartbeats out of the way
	if tweak != nil {
		tweak(h)
	}

	r := gin.New()
	r.GET("/ws/stream", h.StreamWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return h, conn
}

// readEvent returns the next non-ping server message.
func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))
		if m["type"] == "ping" {
			continue
		}
		return m
	}
}

func sendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

func handshake(t *testing.T, conn *websocket.Conn, sessionID string) {
	t.Helper()
	sendJSON(t, conn, map[string]string{"session_id": sessionID})
	m := readEvent(t, conn)
	require.Equal(t, "ready", m["type"])
}

func TestStreamHandshakeTimeout(t *testing.T) {
	fake := &fakeSessions{known: map[string]bool{}}
	_, conn := newWSServer(t, fake, func(h *WSHandler) {
		h.HandshakeTimeout = 100 * time.Millisecond
	})

	m := readEvent(t, conn)
	assert.Equal(t, "error", m["type"])
	assert.Contains(t, m["message"], "timed out")

	// connection is closed and nothing was registered
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Zero(t, fake.getCalls)
}

func TestStreamHandshakeUnknownSession(t *testing.T) {
	fake := &fakeSessions{known: map[string]bool{}}
	_, conn := newWSServer(t, fake, nil)

	sendJSON(t, conn, map[string]string{"session_id": "ghost"})
	m := readEvent(t, conn)
	assert.Equal(t, "error", m["type"])
	assert.Equal(t, "Invalid session ID", m["message"])
}

func TestStreamFragmentsConcatenatedOnce(t *testing.T) {
	fake := &fakeSessions{
		known: map[string]bool{"s1": true},
		outcome: &services.AnswerOutcome{
			Transcript:     "hello",
			QuestionText:   "next q",
			AudioURL:       "/audio/n.mp3",
			QuestionIndex:  2,
			TotalQuestions: 5,
		},
	}
	_, conn := newWSServer(t, fake, nil)
	handshake(t, conn, "s1")

	sendJSON(t, conn, map[string]string{"type": "start_recording"})
	m := readEvent(t, conn)
	require.Equal(t, "status", m["type"])
	require.Equal(t, true, m["recording"])

	for _, frag := range []string{"a", "b", "c"} {
		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte(frag)))
	}
	sendJSON(t, conn, map[string]string{"type": "recording-complete"})

	m = readEvent(t, conn)
	require.Equal(t, "status", m["type"])
	require.Equal(t, false, m["recording"])
	require.Equal(t, true, m["processing"])

	m = readEvent(t, conn)
	require.Equal(t, "transcription", m["type"])
	assert.Equal(t, "hello", m["text"])

	m = readEvent(t, conn)
	require.Equal(t, "next_question", m["type"])
	assert.Equal(t, "next q", m["question_text"])
	assert.Equal(t, float64(2), m["question_index"])

	calls := fake.processedCalls()
	require.Len(t, calls, 1, "transcription must be invoked exactly once")
	assert.Equal(t, []byte("abc"), calls[0])
}

func TestStreamRecordingCompleteWithoutAudio(t *testing.T) {
	fake := &fakeSessions{known: map[string]bool{"s1": true}}
	_, conn := newWSServer(t, fake, nil)
	handshake(t, conn, "s1")

	sendJSON(t, conn, map[string]string{"type": "start_recording"})
	_ = readEvent(t, conn) // status recording

	sendJSON(t, conn, map[string]string{"type": "recording-complete"})
	_ = readEvent(t, conn) // status processing

	m := readEvent(t, conn)
	assert.Equal(t, "error", m["type"])
	assert.Equal(t, "No audio received", m["message"])
	assert.Empty(t, fake.processedCalls())
}

func TestStreamFragmentsIgnoredWhenNotRecording(t *testing.T) {
	fake := &fakeSessions{known: map[string]bool{"s1": true}}
	_, conn := newWSServer(t, fake, nil)
	handshake(t, conn, "s1")

	// binary before start_recording is dropped
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("stray")))

	sendJSON(t, conn, map[string]string{"type": "start_recording"})
	_ = readEvent(t, conn)
	sendJSON(t, conn, map[string]string{"type": "recording-complete"})
	_ = readEvent(t, conn)

	m := readEvent(t, conn)
	assert.Equal(t, "error", m["type"])
	assert.Equal(t, "No audio received", m["message"])
}

func TestStreamInterviewComplete(t *testing.T) {
	fake := &fakeSessions{
		known: map[string]bool{"s1": true},
		outcome: &services.AnswerOutcome{
			SessionComplete: true,
			Transcript:      "final words",
			FinalEvaluation: &models.FinalEvaluation{OverallScore: 80, FeedbackSummary: "well done"},
		},
	}
	_, conn := newWSServer(t, fake, nil)
	handshake(t, conn, "s1")

	sendJSON(t, conn, map[string]string{"type": "start_recording"})
	_ = readEvent(t, conn)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("audio")))
	sendJSON(t, conn, map[string]string{"type": "recording-complete"})
	_ = readEvent(t, conn) // status processing

	m := readEvent(t, conn)
	require.Equal(t, "transcription", m["type"])

	m = readEvent(t, conn)
	require.Equal(t, "interview_complete", m["type"])
	eval, ok := m["evaluation"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(80), eval["overall_score"])
}

func TestStreamPingPongAndUnknownType(t *testing.T) {
	fake := &fakeSessions{known: map[string]bool{"s1": true}}
	_, conn := newWSServer(t, fake, nil)
	handshake(t, conn, "s1")

	sendJSON(t, conn, map[string]string{"type": "ping"})
	m := readEvent(t, conn)
	assert.Equal(t, "pong", m["type"])

	sendJSON(t, conn, map[string]string{"type": "launch_missiles"})
	m = readEvent(t, conn)
	assert.Equal(t, "error", m["type"])

	// connection survives the unknown type
	sendJSON(t, conn, map[string]string{"type": "ping"})
	m = readEvent(t, conn)
	assert.Equal(t, "pong", m["type"])
}

func TestStreamMalformedJSONKeepsConnection(t *testing.T) {
	fake := &fakeSessions{known: map[string]bool{"s1": true}}
	_, conn := newWSServer(t, fake, nil)
	handshake(t, conn, "s1")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	m := readEvent(t, conn)
	assert.Equal(t, "error", m["type"])

	sendJSON(t, conn, map[string]string{"type": "ping"})
	m = readEvent(t, conn)
	assert.Equal(t, "pong", m["type"])
}

func TestStreamReceiveTimeoutProbesInsteadOfClosing(t *testing.T) {
	fake := &fakeSessions{known: map[string]bool{"s1": true}}
	_, conn := newWSServer(t, fake, func(h *WSHandler) {
		h.ReadTimeout = 150 * time.Millisecond
	})
	handshake(t, conn, "s1")

	// stay silent: the server must probe with pings, not close
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "ping", m["type"])

	// a second silent interval is tolerated too
	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "ping", m["type"])

	// and the connection still works
	sendJSON(t, conn, map[string]string{"type": "ping"})
	m = readEvent(t, conn)
	assert.Equal(t, "pong", m["type"])
}

func TestStreamEndSessionClosesConnection(t *testing.T) {
	fake := &fakeSessions{known: map[string]bool{"s1": true}}
	_, conn := newWSServer(t, fake, nil)
	handshake(t, conn, "s1")

	sendJSON(t, conn, map[string]string{"type": "end_session"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestStreamProcessingErrorIsReported(t *testing.T) {
	fake := &fakeSessions{
		known: map[string]bool{"s1": true},
		err:   utils.E(utils.CodeInvalidState, "fake", "no more questions in this session", nil),
	}
	_, conn := newWSServer(t, fake, nil)
	handshake(t, conn, "s1")

	sendJSON(t, conn, map[string]string{"type": "start_recording"})
	_ = readEvent(t, conn)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("audio")))
	sendJSON(t, conn, map[string]string{"type": "recording-complete"})
	_ = readEvent(t, conn) // status processing

	m := readEvent(t, conn)
	assert.Equal(t, "error", m["type"])
	assert.Equal(t, "no more questions in this session", m["message"])
}
