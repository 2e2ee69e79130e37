package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	speechmodel "github.com/calebhsu/prescreen/backend/internal/model/speech"
)

// transcribe uploads audio to the STT endpoint as multipart form data
// (whisper-style API) and reads back the transcription text.
func (s *Service) transcribe(ctx context.Context, req *speechmodel.ASRRequest) (*speechmodel.ASRResponse, error) {
	if s.config.STTURL == "" {
		return nil, ErrNotConfigured
	}

	format := req.Format
	if format == "" {
		format = "wav"
	}
	language := req.Language
	if language == "" {
		language = s.config.ASRLanguage
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio."+format)
	if err != nil {
		return nil, fmt.Errorf("create audio form part: %w", err)
	}
	if _, err := io.Copy(part, req.AudioData); err != nil {
		return nil, fmt.Errorf("buffer audio payload: %w", err)
	}
	if s.config.STTModel != "" {
		_ = writer.WriteField("model", s.config.STTModel)
	}
	if language != "" {
		_ = writer.WriteField("language", language)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.STTURL, &body)
	if err != nil {
		return nil, fmt.Errorf("build STT request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	s.authorize(httpReq)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call STT service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("STT service returned status %d", resp.StatusCode)
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode STT response: %w", err)
	}

	return &speechmodel.ASRResponse{
		SessionID: req.SessionID,
		Text:      strings.TrimSpace(payload.Text),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// synthesize posts text to the TTS endpoint and returns the rendered audio
// bytes unchanged; codec concerns stay with the collaborator.
func (s *Service) synthesize(ctx context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error) {
	if s.config.TTSURL == "" {
		return nil, ErrNotConfigured
	}

	voice := req.Voice
	if voice == "" {
		voice = s.config.TTSVoice
	}
	format := req.Format
	if format == "" {
		format = "wav"
	}
	speed := req.Speed
	if speed == 0 {
		speed = s.config.TTSSpeed
	}

	payload := map[string]any{
		"input":           req.Text,
		"voice":           voice,
		"response_format": format,
	}
	if speed > 0 {
		payload["speed"] = speed
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode TTS request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.TTSURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build TTS request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	s.authorize(httpReq)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call TTS service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TTS service returned status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read TTS audio: %w", err)
	}

	return &speechmodel.TTSResponse{
		SessionID: req.SessionID,
		AudioData: audio,
		Format:    format,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (s *Service) authorize(req *http.Request) {
	if s.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	}
}
