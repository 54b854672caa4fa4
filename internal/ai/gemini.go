package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-2.5-flash"
	defaultGeminiTimeout = 30 * time.Second

	// generativeLanguageScope is the OAuth scope for application-default credentials.
	generativeLanguageScope = "https://www.googleapis.com/auth/generative-language"
)

// ErrNoCredentials is returned when neither an API key nor ADC is configured.
var ErrNoCredentials = errors.New("gemini: api key or application default credentials required")

// GeminiConfig selects model, credentials and transport for GeminiClient.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration

	// UseADC authenticates with Google application-default credentials
	// instead of an API key.
	UseADC bool

	// BaseURL and TokenSource override the defaults. Tests point BaseURL at
	// an httptest server and pass a static TokenSource.
	BaseURL     string
	TokenSource oauth2.TokenSource
}

// GeminiClient calls the Gemini generateContent REST endpoint.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

var _ TextGenerator = (*GeminiClient)(nil)

// NewGeminiClient builds a client from cfg. With an API key the key travels
// as a query parameter. With ADC (or an explicit TokenSource) every request
// carries an OAuth bearer token instead.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	c := &GeminiClient{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   normalizeModel(cfg.Model),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
	if c.model == "" {
		c.model = defaultGeminiModel
	}
	if c.baseURL == "" {
		c.baseURL = defaultGeminiBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultGeminiTimeout
	}

	ts := cfg.TokenSource
	if ts == nil && cfg.UseADC {
		var err error
		ts, err = google.DefaultTokenSource(ctx, generativeLanguageScope)
		if err != nil {
			return nil, fmt.Errorf("gemini: loading application default credentials: %w", err)
		}
	}

	switch {
	case ts != nil:
		c.apiKey = ""
		c.httpClient = oauth2.NewClient(ctx, ts)
		c.httpClient.Timeout = timeout
	case c.apiKey != "":
		c.httpClient = &http.Client{Timeout: timeout}
	default:
		return nil, ErrNoCredentials
	}

	return c, nil
}

// Model reports the model name requests are sent to.
func (c *GeminiClient) Model() string {
	return c.model
}

// GenerateText sends prompt as a single user turn and concatenates the text
// parts of the first candidate.
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{
			{
				Role:  "user",
				Parts: []part{{Text: prompt}},
			},
		},
	}

	var resp generateResponse
	if err := c.doJSON(ctx, c.endpoint("generateContent"), reqBody, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", nil
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

func (c *GeminiClient) endpoint(method string) string {
	u := fmt.Sprintf("%s/models/%s:%s", c.baseURL, url.PathEscape(c.model), method)
	if c.apiKey != "" {
		u += "?key=" + url.QueryEscape(c.apiKey)
	}
	return u
}

func normalizeModel(model string) string {
	model = strings.TrimSpace(model)
	return strings.TrimPrefix(model, "models/")
}

func (c *GeminiClient) doJSON(ctx context.Context, target string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("gemini: encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gemini: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gemini: sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return fmt.Errorf("gemini api error: %s", errResp.Error.Message)
		}
		return fmt.Errorf("gemini api error: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gemini: decoding response: %w", err)
	}
	return nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
