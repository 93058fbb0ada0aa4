// Package vertex calls Gemini models on Vertex AI through the generateContent REST method.
package vertex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/option"
	htransport "google.golang.org/api/transport/http"

	"github.com/yungbote/medsim-backend/internal/observability"
	"github.com/yungbote/medsim-backend/internal/platform/gcp"
	"github.com/yungbote/medsim-backend/internal/platform/llm"
	"github.com/yungbote/medsim-backend/internal/platform/logger"
)

const (
	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
	DefaultModel       = "gemini-2.0-flash-001"
)

type Config struct {
	ProjectID string
	Location  string
	// Model is either a publisher model id ("gemini-2.0-flash-001") or a full resource
	// name such as a tuned endpoint ("projects/p/locations/l/endpoints/123").
	Model   string
	Timeout time.Duration

	// BaseURL and HTTPClient override the regional endpoint and ADC transport.
	BaseURL    string
	HTTPClient *http.Client
}

type Client struct {
	log        *logger.Logger
	httpClient *http.Client
	baseURL    string
	resource   string
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, llm.ErrNotConfigured
	}
	if cfg.Location == "" {
		cfg.Location = "us-central1"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	hc := cfg.HTTPClient
	if hc == nil {
		opts := append(gcp.ClientOptionsFromEnv(), option.WithScopes(cloudPlatformScope))
		authed, _, err := htransport.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("vertex transport: %w", err)
		}
		hc = authed
	}
	copied := *hc
	copied.Timeout = cfg.Timeout

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s-aiplatform.googleapis.com", cfg.Location)
	}

	return &Client{
		log:        log.With("client", "VertexClient"),
		httpClient: &copied,
		baseURL:    baseURL,
		resource:   resourceName(cfg),
	}, nil
}

func resourceName(cfg Config) string {
	if strings.HasPrefix(cfg.Model, "projects/") {
		return cfg.Model
	}
	return fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/%s", cfg.ProjectID, cfg.Location, cfg.Model)
}

func (c *Client) Provider() string { return "vertex" }

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

type generateRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("vertex http %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func buildRequest(req llm.Request) generateRequest {
	out := generateRequest{GenerationConfig: generationConfig{Temperature: req.Temperature}}
	if strings.TrimSpace(req.System) != "" {
		out.SystemInstruction = &content{Parts: []part{{Text: req.System}}}
	}
	if req.JSON {
		out.GenerationConfig.ResponseMIMEType = "application/json"
	}
	for _, t := range req.Turns {
		role := string(t.Role)
		if role == "" {
			role = string(llm.RoleUser)
		}
		out.Contents = append(out.Contents, content{Role: role, Parts: []part{{Text: t.Text}}})
	}
	return out
}

func (c *Client) Generate(ctx context.Context, req llm.Request) (text string, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "vertex.generateContent")
	defer func() {
		observability.Current().ObserveUpstream(c.Provider(), "generate", observability.UpstreamStatus(err), time.Since(start))
		observability.EndSpan(span, err)
	}()

	body, err := json.Marshal(buildRequest(req))
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/v1/%s:generateContent", c.baseURL, c.resource)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("vertex decode error: %w", err)
	}
	if out.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", out.PromptFeedback.BlockReason)
	}
	text = extractText(out)
	if strings.TrimSpace(text) == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

func extractText(resp generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}
