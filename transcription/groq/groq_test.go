package groq

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/skillsenselab/scribe/transcription"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewProvider(Config{BaseURL: srv.URL})
}

func TestTranscribe_Success(t *testing.T) {
	var gotAuth, gotModel, gotPrompt, gotLang string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai/v1/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotModel = r.FormValue("model")
		gotPrompt = r.FormValue("prompt")
		gotLang = r.FormValue("language")
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "meeting.mp3" {
			t.Errorf("filename = %s", header.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "hello world", "language": "en"}`))
	})

	resp, err := p.Transcribe(context.Background(), transcription.Request{
		Audio:     []byte("fake audio bytes"),
		Filename:  "meeting.mp3",
		MediaType: "audio/mpeg",
		APIKey:    "gsk_test",
		Language:  "en",
	})
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if resp.Text != "hello world" {
		t.Errorf("text = %q", resp.Text)
	}
	if gotAuth != "Bearer gsk_test" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotModel != "whisper-large-v3" {
		t.Errorf("model = %q", gotModel)
	}
	if !strings.Contains(gotPrompt, "without translating") {
		t.Errorf("prompt = %q", gotPrompt)
	}
	if gotLang != "en" {
		t.Errorf("language = %q", gotLang)
	}
}

func TestTranscribe_ProviderError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Invalid API Key", "type": "invalid_request_error"}}`))
	})

	_, err := p.Transcribe(context.Background(), transcription.Request{
		Audio:  []byte("x"),
		APIKey: "bad",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Invalid API Key") {
		t.Errorf("error should carry provider message, got %q", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error should carry status, got %q", err)
	}
}

func TestTranscribe_InputChecks(t *testing.T) {
	p := NewProvider(Config{})
	if _, err := p.Transcribe(context.Background(), transcription.Request{APIKey: "k"}); err == nil {
		t.Error("expected error for empty audio")
	}
	if _, err := p.Transcribe(context.Background(), transcription.Request{Audio: []byte("x")}); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Model != "whisper-large-v3" {
		t.Errorf("default model = %s", cfg.Model)
	}
	if cfg.BaseURL != "https://api.groq.com" {
		t.Errorf("default base url = %s", cfg.BaseURL)
	}
}
