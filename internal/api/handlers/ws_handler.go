package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/visaprep-ai/backend/internal/services"
	"github.com/visaprep-ai/backend/internal/utils"
)

// WSHandler is the streaming coordinator: it owns one live connection per
// session, buffers inbound audio fragments, and hands completed recordings to
// the session state machine.
type WSHandler struct {
	sessions services.SessionService
	log      *logrus.Logger
	upgrader websocket.Upgrader

	// timings are fields so tests can shrink them
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	PingInterval     time.Duration

	mu    sync.Mutex
	conns map[string]*wsConn // session_id -> live connection
}

func NewWSHandler(sessions services.SessionService, log *logrus.Logger) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		log:      log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
		HandshakeTimeout: 30 * time.Second,
		ReadTimeout:      60 * time.Second,
		PingInterval:     15 * time.Second,
		conns:            make(map[string]*wsConn),
	}
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

type wsClientMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

func (h *WSHandler) register(sessionID string, wc *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[sessionID] = wc
}

// deregister removes the mapping only if it still points at wc, so a
// re-attached connection is not torn down by the old one's cleanup.
func (h *WSHandler) deregister(sessionID string, wc *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[sessionID] == wc {
		delete(h.conns, sessionID)
	}
}

// StreamWS handles the per-session streaming protocol: handshake, keepalive,
// audio fragment buffering, and answer processing.
func (h *WSHandler) StreamWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}

	// Handshake: the first message must bind the connection to a session.
	_ = conn.SetReadDeadline(time.Now().Add(h.HandshakeTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		if isTimeout(err) {
			_ = wc.writeJSON(gin.H{"type": "error", "message": "Connection timed out waiting for session ID"})
		}
		return
	}

	var hello wsClientMsg
	if err := json.Unmarshal(data, &hello); err != nil || hello.SessionID == "" {
		_ = wc.writeJSON(gin.H{"type": "error", "message": "Invalid session ID"})
		return
	}
	sessionID := hello.SessionID
	if _, err := h.sessions.Get(c.Request.Context(), sessionID); err != nil {
		_ = wc.writeJSON(gin.H{"type": "error", "message": "Invalid session ID"})
		return
	}

	h.register(sessionID, wc)
	defer h.deregister(sessionID, wc)

	log := h.log.WithField("session_id", sessionID)
	if err := wc.writeJSON(gin.H{"type": "ready", "message": "Connected and ready"}); err != nil {
		return
	}

	// Server-initiated heartbeat, cancelled and awaited on every exit path.
	heartbeatStop := make(chan struct{})
	heartbeatDone := make(chan struct{})
	go func() {
		defer close(heartbeatDone)
		t := time.NewTicker(h.PingInterval)
		defer t.Stop()
		for {
			select {
			case <-heartbeatStop:
				return
			case <-t.C:
				if err := wc.writeJSON(gin.H{"type": "ping"}); err != nil {
					return
				}
			}
		}
	}()
	defer func() {
		close(heartbeatStop)
		<-heartbeatDone
	}()

	var fragments [][]byte // owned here; cleared on start_recording and teardown
	recording := false

	for {
		_ = conn.SetReadDeadline(time.Now().Add(h.ReadTimeout))
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if isTimeout(err) {
				// probe instead of closing; consecutive timeouts are tolerated
				if werr := wc.writeJSON(gin.H{"type": "ping"}); werr != nil {
					return
				}
				continue
			}
			log.WithError(err).Info("websocket disconnected")
			return
		}

		if msgType == websocket.BinaryMessage {
			if recording {
				fragments = append(fragments, data)
			}
			continue
		}

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeJSON(gin.H{"type": "error", "message": "Invalid message"})
			continue
		}

		switch msg.Type {
		case "ping":
			_ = wc.writeJSON(gin.H{"type": "pong"})

		case "start_recording":
			fragments = fragments[:0]
			recording = true
			_ = wc.writeJSON(gin.H{"type": "status", "recording": true})

		case "recording-complete":
			recording = false
			_ = wc.writeJSON(gin.H{"type": "status", "recording": false, "processing": true})

			if len(fragments) == 0 {
				_ = wc.writeJSON(gin.H{"type": "error", "message": "No audio received"})
				continue
			}

			// single concatenation in receipt order keeps the transcription input atomic
			audio := bytes.Join(fragments, nil)
			fragments = fragments[:0]
			h.processAnswer(c, wc, sessionID, audio)

		case "end_session":
			log.Info("session websocket ended by client")
			return

		default:
			_ = wc.writeJSON(gin.H{"type": "error", "message": "Unknown message type"})
		}
	}
}

func (h *WSHandler) processAnswer(c *gin.Context, wc *wsConn, sessionID string, audio []byte) {
	outcome, err := h.sessions.ProcessStreamedAnswer(c.Request.Context(), sessionID, audio)
	if err != nil {
		h.log.WithError(err).WithField("session_id", sessionID).Error("error processing streamed answer")
		msg := "Error processing your answer. Please try again."
		if utils.IsCode(err, utils.CodeInvalidState) || utils.IsCode(err, utils.CodeNotFound) {
			msg = utils.Message(err)
		}
		_ = wc.writeJSON(gin.H{"type": "error", "message": msg})
		return
	}

	_ = wc.writeJSON(gin.H{"type": "transcription", "text": outcome.Transcript})

	if outcome.SessionComplete {
		_ = wc.writeJSON(gin.H{
			"type":            "interview_complete",
			"evaluation":      outcome.FinalEvaluation,
			"last_evaluation": outcome.LastEvaluation,
		})
		return
	}

	_ = wc.writeJSON(gin.H{
		"type":            "next_question",
		"question_text":   outcome.QuestionText,
		"audio_url":       outcome.AudioURL,
		"question_index":  outcome.QuestionIndex,
		"total_questions": outcome.TotalQuestions,
		"last_evaluation": outcome.LastEvaluation,
	})
}

// HealthWS answers every client message with a health status, mirroring the
// HTTP health endpoint for clients probing websocket reachability.
func (h *WSHandler) HealthWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		if err := wc.writeJSON(gin.H{"status": "healthy", "timestamp": time.Now().Unix()}); err != nil {
			return
		}
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
