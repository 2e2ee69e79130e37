package interview

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	interviewmodel "github.com/calebhsu/prescreen/backend/internal/model/interview"
	interviewservice "github.com/calebhsu/prescreen/backend/internal/service/interview"
)

// WebSocketHandler drives a realtime interview: the client streams answers
// (typed text or recorded audio) and receives the transcription echo, the
// turn outcome and, when TTS is available, the next question as audio.
type WebSocketHandler struct {
	interviewSvc *interviewservice.Service
	speechSvc    SpeechService
	upgrader     websocket.Upgrader
}

// NewWebSocketHandler creates the realtime interview handler.
func NewWebSocketHandler(interviewSvc *interviewservice.Service, speechSvc SpeechService) *WebSocketHandler {
	return &WebSocketHandler{
		interviewSvc: interviewSvc,
		speechSvc:    speechSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes mounts the realtime endpoint.
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// AnswerMessage carries a typed answer for the pending question.
type AnswerMessage struct {
	Question string `json:"question"`
	Text     string `json:"text"`
}

// AudioMessage carries a chunk of recorded answer audio.
type AudioMessage struct {
	AudioData  []byte `json:"audioData"`
	Format     string `json:"format"`
	Language   string `json:"language"`
	IsFinal    bool   `json:"isFinal"`
	ChunkIndex int    `json:"chunkIndex"`
}

// ConfigMessage adjusts per-connection behavior.
type ConfigMessage struct {
	Language   string `json:"language"`
	Voice      string `json:"voice"`
	TTSEnabled *bool  `json:"ttsEnabled,omitempty"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type connectionState struct {
	sessionID       string
	language        string
	voice           string
	ttsEnabled      bool
	audioFormat     string
	pendingQuestion string
	buffer          bytes.Buffer
}

func newConnectionState(session interviewmodel.Session) *connectionState {
	state := &connectionState{
		sessionID:  session.SessionID,
		language:   "en-US",
		ttsEnabled: true,
	}
	if session.QACount == 0 && len(session.DomainQuestions) > 0 {
		state.pendingQuestion = session.DomainQuestions[0]
	}
	return state
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	session, err := h.interviewSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	state := newConnectionState(session)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[websocket] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go h.pingLoop(ctx, conn)

	h.sendInfo(conn, sessionID, map[string]any{
		"type":            "connected",
		"status":          session.Status,
		"pendingQuestion": state.pendingQuestion,
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("[websocket] read error: %v", err)
				}
				return
			}

			conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			if msg.SessionID != "" && msg.SessionID != sessionID {
				h.sendError(conn, "session mismatch")
				continue
			}

			h.handleMessage(ctx, conn, state, &msg)
		}
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, conn *websocket.Conn, state *connectionState, msg *inboundMessage) {
	switch msg.Type {
	case "answer":
		h.handleAnswerMessage(ctx, conn, state, msg.Data)
	case "audio":
		h.handleAudioMessage(ctx, conn, state, msg.Data)
	case "config":
		h.handleConfigMessage(conn, state, msg.Data)
	default:
		h.sendError(conn, "unsupported message type: "+msg.Type)
	}
}

func (h *WebSocketHandler) handleAnswerMessage(ctx context.Context, conn *websocket.Conn, state *connectionState, raw json.RawMessage) {
	var answer AnswerMessage
	if err := json.Unmarshal(raw, &answer); err != nil {
		h.sendError(conn, "invalid answer payload")
		return
	}
	if answer.Question != "" {
		state.pendingQuestion = answer.Question
	}
	if answer.Text == "" {
		h.sendError(conn, "answer text is required")
		return
	}

	h.runTurn(ctx, conn, state, answer.Text)
}

func (h *WebSocketHandler) handleAudioMessage(ctx context.Context, conn *websocket.Conn, state *connectionState, raw json.RawMessage) {
	if h.speechSvc == nil {
		h.sendError(conn, "transcription not available")
		return
	}

	var audio AudioMessage
	if err := json.Unmarshal(raw, &audio); err != nil {
		h.sendError(conn, "invalid audio payload")
		return
	}

	if len(audio.AudioData) > 0 {
		state.buffer.Write(audio.AudioData)
	}
	if audio.Format != "" {
		state.audioFormat = audio.Format
	}
	if audio.Language != "" {
		state.language = audio.Language
	}

	if audio.IsFinal {
		h.processBufferedAudio(ctx, conn, state)
	}
}

func (h *WebSocketHandler) processBufferedAudio(ctx context.Context, conn *websocket.Conn, state *connectionState) {
	audioBytes := state.buffer.Bytes()
	state.buffer.Reset()

	if len(audioBytes) == 0 {
		return
	}

	format := state.audioFormat
	if format == "" {
		format = "wav"
	}

	log.Printf("[websocket] transcribing answer session=%s format=%s bytes=%d", state.sessionID, format, len(audioBytes))

	asrResp, err := h.speechSvc.TranscribeBuffer(ctx, state.sessionID, audioBytes, format, state.language)
	if err != nil {
		h.sendError(conn, "transcription failed")
		return
	}

	h.sendInfo(conn, state.sessionID, map[string]any{
		"type":    "asr",
		"text":    asrResp.Text,
		"isFinal": true,
	})

	if asrResp.Text == "" {
		return
	}

	h.runTurn(ctx, conn, state, asrResp.Text)
}

// runTurn submits the answer and pushes the outcome back over the socket.
func (h *WebSocketHandler) runTurn(ctx context.Context, conn *websocket.Conn, state *connectionState, answerText string) {
	result, err := h.interviewSvc.SubmitAnswer(ctx, state.sessionID, state.pendingQuestion, answerText)
	if err != nil {
		if errors.Is(err, interviewservice.ErrSessionComplete) {
			h.sendError(conn, "session already complete")
			return
		}
		log.Printf("[websocket] submit answer failed session=%s: %v", state.sessionID, err)
		h.sendError(conn, "failed to record answer")
		return
	}

	nextQuestion := ""
	if result.NextQuestion != nil {
		nextQuestion = *result.NextQuestion
	}
	state.pendingQuestion = nextQuestion

	h.sendInfo(conn, state.sessionID, map[string]any{
		"type":           "turn",
		"nextQuestion":   nextQuestion,
		"done":           result.Done,
		"userAnswer":     result.UserAnswer,
		"classification": result.Classification,
	})

	if state.ttsEnabled && nextQuestion != "" {
		h.sendTTS(ctx, conn, state, nextQuestion)
	}
}

func (h *WebSocketHandler) sendTTS(ctx context.Context, conn *websocket.Conn, state *connectionState, text string) {
	if h.speechSvc == nil {
		return
	}

	ttsResp, err := h.speechSvc.SynthesizeToBuffer(ctx, state.sessionID, text, state.voice, state.language)
	if err != nil {
		log.Printf("[websocket] TTS failed: %v", err)
		h.sendInfo(conn, state.sessionID, map[string]any{
			"type":  "tts",
			"error": "synthesis failed",
		})
		return
	}

	if len(ttsResp.AudioData) == 0 {
		return
	}

	audioB64 := base64.StdEncoding.EncodeToString(ttsResp.AudioData)
	h.sendInfo(conn, state.sessionID, map[string]any{
		"type":      "tts",
		"audioData": audioB64,
		"format":    ttsResp.Format,
		"isFinal":   true,
	})
}

func (h *WebSocketHandler) handleConfigMessage(conn *websocket.Conn, state *connectionState, raw json.RawMessage) {
	var cfg ConfigMessage
	if err := json.Unmarshal(raw, &cfg); err != nil {
		h.sendError(conn, "invalid config payload")
		return
	}

	if cfg.Language != "" {
		state.language = cfg.Language
	}
	if cfg.Voice != "" {
		state.voice = cfg.Voice
	}
	if cfg.TTSEnabled != nil {
		state.ttsEnabled = *cfg.TTSEnabled
	}

	h.sendInfo(conn, state.sessionID, map[string]any{
		"type":     "config",
		"language": state.language,
		"voice":    state.voice,
		"tts":      state.ttsEnabled,
	})
}

func (h *WebSocketHandler) sendInfo(conn *websocket.Conn, sessionID string, data map[string]any) {
	msg := outgoingMessage{
		Type:      "result",
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write info failed: %v", err)
	}
}

func (h *WebSocketHandler) sendError(conn *websocket.Conn, message string) {
	msg := outgoingMessage{
		Type:      "error",
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write error failed: %v", err)
	}
}

// pingLoop keeps the connection alive through idle stretches while the
// patient thinks.
func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
