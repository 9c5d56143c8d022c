// Package groq implements transcription.Provider against Groq's
// OpenAI-compatible audio transcription endpoint.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/skillsenselab/scribe/transcription"
)

const (
	// ProviderName is the registered name for the Groq provider.
	ProviderName = "groq"

	defaultBaseURL = "https://api.groq.com"
	defaultModel   = "whisper-large-v3"
	defaultTimeout = 10 * time.Minute

	// The upstream prompt asks for a verbatim transcript in the spoken language.
	transcriptionPrompt = "Transcribe the following audio without translating it. " +
		"Maintain the original language of the speech."
)

// Config holds configuration for the Groq transcription provider.
type Config struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Model   string        `yaml:"model" mapstructure:"model"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// Provider implements transcription.Provider using Groq's hosted Whisper.
// The credential travels with each request, not the provider: every job
// carries its caller's own API key.
type Provider struct {
	cfg    Config
	client *http.Client
}

// NewProvider creates a new Groq transcription provider.
func NewProvider(cfg Config) *Provider {
	cfg.ApplyDefaults()
	return &Provider{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// Transcribe uploads the audio and returns the transcript.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	if len(req.Audio) == 0 {
		return nil, fmt.Errorf("groq: empty audio payload")
	}
	if req.APIKey == "" {
		return nil, fmt.Errorf("groq: missing API key")
	}

	model := p.cfg.Model
	if req.Model != "" {
		model = req.Model
	}
	filename := req.Filename
	if filename == "" {
		filename = "audio"
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := createFilePart(writer, filename, req.MediaType)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(req.Audio); err != nil {
		return nil, fmt.Errorf("write audio data: %w", err)
	}

	_ = writer.WriteField("model", model)
	_ = writer.WriteField("response_format", "json")
	_ = writer.WriteField("temperature", "0")
	_ = writer.WriteField("prompt", transcriptionPrompt)
	if req.Language != "" {
		_ = writer.WriteField("language", req.Language)
	}
	writer.Close()

	url := p.cfg.BaseURL + "/openai/v1/audio/transcriptions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("groq request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var result groqResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode groq response: %w", err)
	}

	return &transcription.Response{
		Text:     result.Text,
		Language: result.Language,
		Duration: result.Duration,
	}, nil
}

// createFilePart writes the file part, carrying the declared media type
// through to the provider when one was supplied.
func createFilePart(w *multipart.Writer, filename, mediaType string) (io.Writer, error) {
	if mediaType == "" {
		return w.CreateFormFile("file", filename)
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		`form-data; name="file"; filename="`+escapeQuotes(filename)+`"`)
	header.Set("Content-Type", mediaType)
	return w.CreatePart(header)
}

// decodeError turns a non-2xx provider response into a descriptive error.
func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload groqError
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return fmt.Errorf("groq error (status %d): %s", resp.StatusCode, payload.Error.Message)
	}
	return fmt.Errorf("groq error (status %d): %s", resp.StatusCode, string(body))
}

func escapeQuotes(s string) string {
	var buf bytes.Buffer
	for _, b := range []byte(s) {
		if b == '"' || b == '\\' {
			buf.WriteByte('\\')
		}
		buf.WriteByte(b)
	}
	return buf.String()
}

// --- Groq API response types ---

type groqResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

type groqError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
