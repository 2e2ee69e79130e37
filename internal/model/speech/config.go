package speech

// Config holds the endpoints and credentials for the external speech
// services. Both services are opaque HTTP collaborators; the engine never
// inspects audio payloads.
type Config struct {
	STTURL      string  `json:"sttUrl"`
	TTSURL      string  `json:"ttsUrl"`
	APIKey      string  `json:"apiKey,omitempty"`
	STTModel    string  `json:"sttModel"`
	TTSVoice    string  `json:"ttsVoice"`
	TTSSpeed    float32 `json:"ttsSpeed"`
	ASRLanguage string  `json:"asrLanguage"`
	Timeout     int     `json:"timeout"` // seconds
}
