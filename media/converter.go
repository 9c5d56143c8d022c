// Package media converts uploaded audio into a container the transcription
// provider accepts, shelling out to ffmpeg.
package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skillsenselab/scribe/logger"
)

// acceptedExtensions are containers the provider ingests directly; anything
// else goes through the mp3 conversion path first.
var acceptedExtensions = map[string]bool{
	".flac": true, ".mp3": true, ".mp4": true, ".mpeg": true, ".mpga": true,
	".m4a": true, ".ogg": true, ".opus": true, ".wav": true, ".webm": true,
}

// Config holds converter configuration.
type Config struct {
	// FFmpegBinary is the ffmpeg executable (resolved via PATH by default).
	FFmpegBinary string `yaml:"ffmpeg_binary" mapstructure:"ffmpeg_binary"`
	// Timeout bounds one conversion run.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.FFmpegBinary == "" {
		c.FFmpegBinary = "ffmpeg"
	}
	if c.Timeout == 0 {
		c.Timeout = 2 * time.Minute
	}
}

// Converter transcodes audio payloads to mp3.
type Converter struct {
	cfg Config
	log *logger.Logger
}

// NewConverter creates a Converter.
func NewConverter(cfg Config, log *logger.Logger) *Converter {
	cfg.ApplyDefaults()
	return &Converter{
		cfg: cfg,
		log: log.WithComponent("media"),
	}
}

// NeedsConversion reports whether the filename's container is outside the
// provider's accepted set.
func NeedsConversion(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return false // no signal; let the provider decide
	}
	return !acceptedExtensions[ext]
}

// ToMP3 converts the payload to mp3 and returns the converted bytes together
// with the adjusted filename. ffmpeg needs seekable input for most
// containers, so the payload goes through temp files.
func (c *Converter) ToMP3(ctx context.Context, data []byte, filename string) ([]byte, string, error) {
	dir, err := os.MkdirTemp("", "scribe-convert-*")
	if err != nil {
		return nil, "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	inPath := filepath.Join(dir, "in"+filepath.Ext(filename))
	outPath := filepath.Join(dir, "out.mp3")
	if err := os.WriteFile(inPath, data, 0o600); err != nil {
		return nil, "", fmt.Errorf("write temp input: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	result, err := run(runCtx, command{
		binary: c.cfg.FFmpegBinary,
		args:   []string{"-y", "-i", inPath, "-f", "mp3", outPath},
	})
	if err != nil {
		var detail string
		if result != nil {
			detail = strings.TrimSpace(string(result.stderr))
			if len(detail) > 512 {
				detail = detail[len(detail)-512:]
			}
		}
		return nil, "", fmt.Errorf("ffmpeg conversion failed: %w: %s", err, detail)
	}

	converted, err := os.ReadFile(outPath)
	if err != nil {
		return nil, "", fmt.Errorf("read converted output: %w", err)
	}

	c.log.Debug("Converted upload to mp3", logger.Fields(
		"file", filename,
		"in_bytes", len(data),
		"out_bytes", len(converted),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))

	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return converted, base + ".mp3", nil
}
