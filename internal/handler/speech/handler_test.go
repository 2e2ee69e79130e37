package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	speechmodel "github.com/calebhsu/prescreen/backend/internal/model/speech"
)

type stubService struct {
	asrText   string
	asrErr    error
	ttsAudio  []byte
	ttsFormat string
	ttsErr    error

	lastASR *speechmodel.ASRRequest
	lastTTS *speechmodel.TTSRequest
}

func (s *stubService) TranscribeAudio(_ context.Context, req *speechmodel.ASRRequest) (*speechmodel.ASRResponse, error) {
	s.lastASR = req
	if s.asrErr != nil {
		return nil, s.asrErr
	}
	if req.AudioData != nil {
		io.Copy(io.Discard, req.AudioData)
	}
	return &speechmodel.ASRResponse{SessionID: req.SessionID, Text: s.asrText}, nil
}

func (s *stubService) SynthesizeSpeech(_ context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error) {
	s.lastTTS = req
	if s.ttsErr != nil {
		return nil, s.ttsErr
	}
	return &speechmodel.TTSResponse{
		SessionID: req.SessionID,
		AudioData: s.ttsAudio,
		Format:    s.ttsFormat,
	}, nil
}

func setupRouter(svc SpeechService) *chi.Mux {
	r := chi.NewRouter()
	New(svc).RegisterRoutes(r)
	return r
}

func multipartAudio(t *testing.T, filename string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		writer.WriteField(k, v)
	}
	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte("fake-audio-bytes"))
	writer.Close()
	return &body, writer.FormDataContentType()
}

func TestTranscribeReturnsText(t *testing.T) {
	stub := &stubService{asrText: "hello there"}
	r := setupRouter(stub)

	body, contentType := multipartAudio(t, "clip.webm", map[string]string{
		"sessionId": "s-1",
		"language":  "en",
	})
	req := httptest.NewRequest(http.MethodPost, "/speech/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var result map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result["transcription"] != "hello there" {
		t.Fatalf("unexpected transcription: %q", result["transcription"])
	}
	if stub.lastASR == nil || stub.lastASR.Format != "webm" || stub.lastASR.Language != "en" {
		t.Fatalf("request fields not forwarded: %+v", stub.lastASR)
	}
}

func TestTranscribeRequiresAudioFile(t *testing.T) {
	r := setupRouter(&stubService{})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	writer.WriteField("sessionId", "s-1")
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/speech/transcribe", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestTranscribeServiceError(t *testing.T) {
	r := setupRouter(&stubService{asrErr: errors.New("upstream down")})

	body, contentType := multipartAudio(t, "clip.wav", nil)
	req := httptest.NewRequest(http.MethodPost, "/speech/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestSynthesizeStreamsAudio(t *testing.T) {
	stub := &stubService{ttsAudio: []byte("mp3-bytes"), ttsFormat: "mp3"}
	r := setupRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/speech/synthesize", strings.NewReader(`{"sessionId":"s-1","text":"next question"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get("Content-Type"); got != "audio/mp3" {
		t.Fatalf("unexpected content type: %s", got)
	}
	if resp.Body.String() != "mp3-bytes" {
		t.Fatalf("unexpected audio body: %q", resp.Body.String())
	}
	if stub.lastTTS == nil || stub.lastTTS.Text != "next question" {
		t.Fatalf("request not forwarded: %+v", stub.lastTTS)
	}
}

func TestSynthesizeRequiresText(t *testing.T) {
	r := setupRouter(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/speech/synthesize", strings.NewReader(`{"text":"   "}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestHealth(t *testing.T) {
	r := setupRouter(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/speech/health", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var result map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result["status"] != "healthy" {
		t.Fatalf("unexpected status: %q", result["status"])
	}
}
