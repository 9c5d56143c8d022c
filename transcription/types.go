package transcription

// Request holds parameters for a transcription call.
type Request struct {
	// Audio is the raw audio payload to transcribe.
	Audio []byte `json:"-"`
	// Filename is the original upload name sent to the provider.
	Filename string `json:"filename"`
	// MediaType is the declared MIME type of the audio (e.g. "audio/mpeg").
	MediaType string `json:"media_type,omitempty"`
	// APIKey is the caller-supplied credential for the provider call.
	APIKey string `json:"-"`
	// Language is an optional hint for the expected language (e.g. "en").
	Language string `json:"language,omitempty"`
	// Model overrides the provider's default model.
	Model string `json:"model,omitempty"`
}

// Response holds the result of a transcription call.
type Response struct {
	// Text is the full transcription text.
	Text string `json:"text"`
	// Language is the detected or specified language, if reported.
	Language string `json:"language,omitempty"`
	// Duration is the audio duration in seconds, if reported.
	Duration float64 `json:"duration,omitempty"`
}
