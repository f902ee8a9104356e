// Package speech turns recorded answers into text.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	// ErrUnavailable is returned when no transcription endpoint is configured.
	ErrUnavailable = errors.New("speech recognition unavailable")
	ErrEmptyAudio  = errors.New("audio is empty")
	ErrNoSpeech    = errors.New("could not understand audio")
)

// Transcriber converts audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, contentType string) (string, error)
}

// Config configures the HTTP transcriber.
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// Client posts audio as multipart form field "file" to an
// OpenAI-compatible transcription endpoint and reads {"text": "..."}.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *slog.Logger
}

// New returns a Client, or a Transcriber that always fails with
// ErrUnavailable when cfg.Endpoint is empty.
func New(cfg Config, logger *slog.Logger) Transcriber {
	logger = logger.With("system", "speech")
	if cfg.Endpoint == "" {
		logger.Warn("no transcription endpoint configured")
		return unavailable{}
	}
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

type transcription struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

func (c *Client) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}

	body, formType, err := encodeAudio(audio, contentType)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}
	req.Header.Set("Content-Type", formType)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var out transcription
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil && resp.StatusCode == http.StatusOK {
		return "", fmt.Errorf("decode transcription: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := out.Error
		if msg == "" {
			msg = resp.Status
		}
		return "", fmt.Errorf("transcription failed (%d): %s", resp.StatusCode, msg)
	}

	text := strings.TrimSpace(out.Text)
	if text == "" {
		return "", ErrNoSpeech
	}

	c.logger.Debug("audio transcribed", "bytes", len(audio), "duration", time.Since(start))
	return text, nil
}

func encodeAudio(audio []byte, contentType string) (io.Reader, string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="answer`+extension(contentType)+`"`)
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create audio part: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", fmt.Errorf("write audio part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}

	return &buf, mw.FormDataContentType(), nil
}

func extension(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".bin"
	}
	switch mt {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/webm":
		return ".webm"
	case "audio/ogg":
		return ".ogg"
	case "audio/mpeg":
		return ".mp3"
	case "audio/mp4":
		return ".m4a"
	}
	return ".bin"
}

type unavailable struct{}

func (unavailable) Transcribe(context.Context, []byte, string) (string, error) {
	return "", ErrUnavailable
}
