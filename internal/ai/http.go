package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hpungsan/focusflow/internal/config"
)

// AvailabilityTTL is how long a probe of /v1/models is trusted.
const AvailabilityTTL = 30 * time.Second

const (
	modelsPath          = "/v1/models"
	chatCompletionsPath = "/v1/chat/completions"
	transcriptionsPath  = "/v1/audio/transcriptions"
	probeTimeout        = 2 * time.Second
)

// HTTPModel speaks the OpenAI chat-completions dialect served by llama.cpp,
// Ollama and LM Studio on localhost.
type HTTPModel struct {
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration

	httpClient *http.Client
	now        func() time.Time

	mu        sync.Mutex
	checkedAt time.Time
	available bool
}

// NewHTTPModel builds a client from the ai section of the config.
func NewHTTPModel(cfg config.AIConfig) (*HTTPModel, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("ai: base_url required")
	}

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &HTTPModel{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      strings.TrimSpace(cfg.Model),
		timeout:    timeout,
		httpClient: &http.Client{Transport: tr},
		now:        time.Now,
	}, nil
}

// NewHTTPModelWithClient is intended for tests against httptest servers.
func NewHTTPModelWithClient(cfg config.AIConfig, httpClient *http.Client) (*HTTPModel, error) {
	m, err := NewHTTPModel(cfg)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		m.httpClient = httpClient
	}
	return m, nil
}

// Available probes the model list endpoint and caches the answer.
func (m *HTTPModel) Available(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.checkedAt.IsZero() && m.now().Sub(m.checkedAt) < AvailabilityTTL {
		return m.available
	}

	var resp struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	err := m.doJSON(ctx, probeTimeout, http.MethodGet, modelsPath, nil, &resp)
	m.available = err == nil
	m.checkedAt = m.now()
	return m.available
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content,omitempty"`
		} `json:"message,omitempty"`
		Text string `json:"text,omitempty"`
	} `json:"choices"`
}

// Complete sends one system+user exchange and returns the first non-empty choice.
func (m *HTTPModel) Complete(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", errors.New("ai: empty prompt")
	}

	msgs := make([]chatMessage, 0, 2)
	if s := strings.TrimSpace(req.System); s != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: s})
	}
	if u := strings.TrimSpace(req.ImageURL); u != "" {
		msgs = append(msgs, chatMessage{Role: "user", Content: []map[string]any{
			{"type": "text", "text": req.Prompt},
			{"type": "image_url", "image_url": map[string]string{"url": u}},
		}})
	} else {
		msgs = append(msgs, chatMessage{Role: "user", Content: req.Prompt})
	}

	body := chatCompletionRequest{
		Model:       m.model,
		Messages:    msgs,
		Temperature: req.Temperature,
	}

	var resp chatCompletionResponse
	if err := m.doJSON(ctx, m.timeout, http.MethodPost, chatCompletionsPath, body, &resp); err != nil {
		return "", err
	}
	text := extractChatText(resp)
	if strings.TrimSpace(text) == "" {
		return "", errors.New("ai: empty completion")
	}
	return strings.TrimSpace(text), nil
}

// Transcribe uploads audio to the transcription endpoint (whisper.cpp / LocalAI).
func (m *HTTPModel) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("ai: empty audio")
	}
	if filename == "" {
		filename = "audio.webm"
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	_ = writer.WriteField("model", m.model)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	_ = writer.Close()

	var resp struct {
		Text string `json:"text"`
	}
	if err := m.doMultipart(ctx, transcriptionsPath, buf.Bytes(), writer.FormDataContentType(), &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", errors.New("ai: empty transcription")
	}
	return strings.TrimSpace(resp.Text), nil
}

func extractChatText(resp chatCompletionResponse) string {
	for _, c := range resp.Choices {
		if strings.TrimSpace(c.Message.Content) != "" {
			return c.Message.Content
		}
		if strings.TrimSpace(c.Text) != "" {
			return c.Text
		}
	}
	return ""
}

// ---------------- HTTP helpers ----------------

func (m *HTTPModel) setHeaders(req *http.Request, contentType string) {
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}
}

func (m *HTTPModel) doJSON(ctx context.Context, timeout time.Duration, method, path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	return m.do(ctx, timeout, method, path, &buf, "application/json", out)
}

func (m *HTTPModel) doMultipart(ctx context.Context, path string, payload []byte, contentType string, out any) error {
	return m.do(ctx, m.timeout, http.MethodPost, path, bytes.NewReader(payload), contentType, out)
}

func (m *HTTPModel) do(ctx context.Context, timeout time.Duration, method, path string, body io.Reader, contentType string, out any) error {
	ctx2 := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx2, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if method == http.MethodGet {
		body = nil
		contentType = ""
	}
	req, err := http.NewRequestWithContext(ctx2, method, m.baseURL+path, body)
	if err != nil {
		return err
	}
	m.setHeaders(req, contentType)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
