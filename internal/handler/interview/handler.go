package interview

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/calebhsu/prescreen/backend/internal/model/speech"
	interviewservice "github.com/calebhsu/prescreen/backend/internal/service/interview"
	"github.com/calebhsu/prescreen/backend/internal/store"
	"github.com/calebhsu/prescreen/backend/pkg/utils"
)

// SpeechService abstracts the speech collaborators so handlers can be
// tested without network access.
type SpeechService interface {
	TranscribeBuffer(ctx context.Context, sessionID string, audioData []byte, format, language string) (*speech.ASRResponse, error)
	SynthesizeToBuffer(ctx context.Context, sessionID, text, voice, language string) (*speech.TTSResponse, error)
}

// Handler exposes the interview engine over HTTP.
type Handler struct {
	interviewSvc *interviewservice.Service
	speechSvc    SpeechService
}

// New creates the interview handler. speechSvc may be nil; audio answers
// are then rejected while text answers keep working.
func New(interviewSvc *interviewservice.Service, speechSvc SpeechService) *Handler {
	return &Handler{
		interviewSvc: interviewSvc,
		speechSvc:    speechSvc,
	}
}

// RegisterRoutes mounts the interview endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/interview", func(ir chi.Router) {
		ir.Post("/session", h.handleStartSession)
		ir.Post("/answer", h.handleSubmitAnswer)
		ir.Get("/sessions/{sessionID}", h.handleGetSession)

		wsHandler := NewWebSocketHandler(h.interviewSvc, h.speechSvc)
		wsHandler.RegisterWebSocketRoutes(ir)
	})
}

func (h *Handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PatientName     string   `json:"patient_name"`
		DomainQuestions []string `json:"domain_questions"`
	}

	// An empty body starts a default interview.
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.interviewSvc.CreateSession(r.Context(), payload.PatientName, payload.DomainQuestions)
	if err != nil {
		log.Printf("[interview] create session failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, result)
}

// handleSubmitAnswer accepts one turn as form data: the answer arrives as
// text, or as an audio file that is transcribed first.
func (h *Handler) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(r); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to parse form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	sessionID := strings.TrimSpace(r.FormValue("session_id"))
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	question := r.FormValue("question")

	answerText := strings.TrimSpace(r.FormValue("text"))
	if answerText == "" {
		transcribed, ok := h.transcribeUpload(w, r, sessionID)
		if !ok {
			return
		}
		answerText = transcribed
	}
	if answerText == "" {
		utils.RespondError(w, http.StatusBadRequest, "provide either 'text' or an 'audio' file")
		return
	}

	result, err := h.interviewSvc.SubmitAnswer(r.Context(), sessionID, question, answerText)
	if err != nil {
		h.respondSubmitError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.interviewSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "session not found")
			return
		}
		log.Printf("[interview] get session failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		return r.ParseMultipartForm(32 << 20) // 32MB max
	}
	return r.ParseForm()
}

// transcribeUpload pulls an optional audio file from the form and runs it
// through the STT collaborator. Returns ok=false when a response was
// already written.
func (h *Handler) transcribeUpload(w http.ResponseWriter, r *http.Request, sessionID string) (string, bool) {
	if r.MultipartForm == nil {
		return "", true
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", true
		}
		utils.RespondError(w, http.StatusBadRequest, "invalid audio upload")
		return "", false
	}
	defer file.Close()

	if h.speechSvc == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "transcription not available")
		return "", false
	}

	audioData, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read audio upload")
		return "", false
	}

	resp, err := h.speechSvc.TranscribeBuffer(r.Context(), sessionID, audioData, inferAudioFormat(header.Filename), r.FormValue("language"))
	if err != nil {
		// There is no safe synthetic substitute for an unintelligible
		// answer, so transcription failure surfaces to the caller.
		log.Printf("[interview] transcription failed session=%s: %v", sessionID, err)
		utils.RespondError(w, http.StatusInternalServerError, "transcription failed")
		return "", false
	}

	return resp.Text, true
}

func (h *Handler) respondSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, interviewservice.ErrSessionComplete):
		utils.RespondError(w, http.StatusConflict, "session already complete")
	case errors.Is(err, interviewservice.ErrMissingAnswer):
		utils.RespondError(w, http.StatusBadRequest, "provide either 'text' or an 'audio' file")
	default:
		log.Printf("[interview] submit answer failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to record answer")
	}
}

// inferAudioFormat maps an uploaded filename to the format hint passed to
// the STT service.
func inferAudioFormat(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".mp3":
		return "mp3"
	case ".wav":
		return "wav"
	case ".webm":
		return "webm"
	case ".m4a":
		return "m4a"
	case ".ogg":
		return "ogg"
	default:
		return "wav"
	}
}
