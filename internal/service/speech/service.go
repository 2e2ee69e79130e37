package speech

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/calebhsu/prescreen/backend/internal/model/speech"
)

// ErrNotConfigured is returned when a speech operation is requested but the
// corresponding endpoint is absent from configuration.
var ErrNotConfigured = errors.New("speech service not configured")

// Service fronts the external speech-to-text and text-to-speech services.
// Both are opaque HTTP collaborators; failures here surface to the caller
// as request failures, never as session failures.
type Service struct {
	config     *speech.Config
	httpClient *http.Client
}

// NewService creates the speech client facade.
func NewService(config *speech.Config) *Service {
	timeout := time.Duration(config.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Service{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// TranscribeAudio 语音转文字
func (s *Service) TranscribeAudio(ctx context.Context, req *speech.ASRRequest) (*speech.ASRResponse, error) {
	return s.transcribe(ctx, req)
}

// SynthesizeSpeech 文字转语音
func (s *Service) SynthesizeSpeech(ctx context.Context, req *speech.TTSRequest) (*speech.TTSResponse, error) {
	return s.synthesize(ctx, req)
}

// TranscribeBuffer 语音转文字（使用字节数组）
func (s *Service) TranscribeBuffer(ctx context.Context, sessionID string, audioData []byte, format, language string) (*speech.ASRResponse, error) {
	req := &speech.ASRRequest{
		SessionID: sessionID,
		AudioData: bytes.NewReader(audioData),
		Format:    format,
		Language:  language,
	}
	return s.TranscribeAudio(ctx, req)
}

// SynthesizeToBuffer 文字转语音（返回字节数组）
func (s *Service) SynthesizeToBuffer(ctx context.Context, sessionID, text, voice, language string) (*speech.TTSResponse, error) {
	req := &speech.TTSRequest{
		SessionID: sessionID,
		Text:      text,
		Voice:     voice,
		Language:  language,
	}
	return s.SynthesizeSpeech(ctx, req)
}
