package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/corvid-labs/parley/internal/httpx"
)

var (
	// ErrInvalidRequest is an exported constant or variable used by the translation client.
	ErrInvalidRequest = errors.New("invalid translation request")
	// ErrAuth is an exported constant or variable used by the translation client.
	ErrAuth = errors.New("invalid translation API key")
	// ErrBadRequest is an exported constant or variable used by the translation client.
	ErrBadRequest = errors.New("translation request rejected by provider")
	// ErrRateLimited is an exported constant or variable used by the translation client.
	ErrRateLimited = errors.New("translation provider rate limited")
	// ErrProtocol is an exported constant or variable used by the translation client.
	ErrProtocol = errors.New("unexpected translation provider response")
)

const maxTextLen = 1000

// Request carries the text and the source/target language codes. Source is
// optional; when present it must be in the supported set.
type Request struct {
	Text           string
	TargetLanguage string
	SourceLanguage string
}

// Result is the translation outcome handed back to the wizard.
type Result struct {
	TranslatedText   string
	DetectedLanguage string
}

// Config defines a public type used by parley APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	MaxRetries     uint64
	RetryBaseDelay time.Duration
	HTTPClient     *http.Client
	Logger         zerolog.Logger
}

// Client talks to the translation provider through the host's reverse-proxy
// path with bearer authentication.
type Client struct {
	http       *http.Client
	baseURL    string
	apiKey     string
	timeout    time.Duration
	maxRetries uint64
	baseDelay  time.Duration
	logger     zerolog.Logger
}

// NewClient creates a translation [Client] from the given configuration.
func NewClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		http:       hc,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		timeout:    cfg.RequestTimeout,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.RetryBaseDelay,
		logger:     cfg.Logger,
	}
}

// Validate applies the request rules in order and reports the first
// violation: text presence, text length, target presence, target supported,
// then source supported when given.
func Validate(req Request) error {
	if strings.TrimSpace(req.Text) == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidRequest)
	}
	if len(req.Text) > maxTextLen {
		return fmt.Errorf("%w: text exceeds %d characters", ErrInvalidRequest, maxTextLen)
	}
	if req.TargetLanguage == "" {
		return fmt.Errorf("%w: target_language is required", ErrInvalidRequest)
	}
	if !IsSupported(req.TargetLanguage) {
		return fmt.Errorf("%w: unsupported target_language %q", ErrInvalidRequest, req.TargetLanguage)
	}
	if req.SourceLanguage != "" && !IsSupported(req.SourceLanguage) {
		return fmt.Errorf("%w: unsupported source_language %q", ErrInvalidRequest, req.SourceLanguage)
	}
	return nil
}

// Passthrough reports whether the request needs no network call because the
// source already matches the target.
func Passthrough(req Request) bool {
	return req.SourceLanguage != "" && req.SourceLanguage == req.TargetLanguage
}

type wirePayload struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"source_language,omitempty"`
	TargetLanguage string `json:"target_language"`
}

type wireResult struct {
	TranslatedText   string `json:"translated_text"`
	DetectedLanguage string `json:"detected_language"`
}

// Translate validates, short-circuits same-language requests, and otherwise
// POSTs to the provider with the bounded retry policy. A response body
// without a translated_text field is a protocol error regardless of status.
func (c *Client) Translate(ctx context.Context, req Request) (*Result, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	if Passthrough(req) {
		return &Result{
			TranslatedText:   req.Text,
			DetectedLanguage: req.SourceLanguage,
		}, nil
	}

	body, err := json.Marshal(wirePayload{
		Text:           req.Text,
		SourceLanguage: req.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
	})
	if err != nil {
		return nil, err
	}

	var out wireResult
	attempt := 0
	err = retry.Do(ctx, httpx.Policy(c.maxRetries, c.baseDelay), func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			c.logger.Debug().Int("attempt", attempt).Msg("retrying translation")
		}
		return c.tryTranslate(ctx, body, &out)
	})
	if err != nil {
		return nil, err
	}

	detected := out.DetectedLanguage
	if detected == "" {
		detected = req.SourceLanguage
	}
	return &Result{
		TranslatedText:   out.TranslatedText,
		DetectedLanguage: detected,
	}, nil
}

func (c *Client) tryTranslate(ctx context.Context, body []byte, out *wireResult) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return retry.RetryableError(fmt.Errorf("%w: %v", httpx.ErrTransient, err))
	}

	if httpx.RetryableStatus(resp.StatusCode) {
		httpx.DrainAndClose(resp)
		return retry.RetryableError(fmt.Errorf("%w: provider returned %d", httpx.ErrTransient, resp.StatusCode))
	}

	if resp.StatusCode >= 400 {
		httpx.DrainAndClose(resp)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return ErrAuth
		case http.StatusTooManyRequests:
			return ErrRateLimited
		default:
			return fmt.Errorf("%w: status %d", ErrBadRequest, resp.StatusCode)
		}
	}

	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	if out.TranslatedText == "" {
		return fmt.Errorf("%w: response missing translated_text", ErrProtocol)
	}
	return nil
}
