package convo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/corvid-labs/parley/internal/httpx"
)

const apiKeyHeader = "x-api-key"

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

// Client talks to the avatar-conversation provider. Create retries transient
// failures with a linear backoff; Status and End are single-shot.
type Client struct {
	http       *http.Client
	baseURL    string
	apiKey     string
	timeout    time.Duration
	maxRetries uint64
	baseDelay  time.Duration
	logger     zerolog.Logger
}

// NewClient creates a conversation [Client] from the given configuration.
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

type createPayload struct {
	ReplicaID  string             `json:"replica_id"`
	Name       string             `json:"conversation_name"`
	Greeting   string             `json:"custom_greeting"`
	Context    string             `json:"conversational_context,omitempty"`
	Properties *payloadProperties `json:"properties,omitempty"`
}

type payloadProperties struct {
	MaxCallDuration          int `json:"max_call_duration,omitempty"`
	ParticipantLeftTimeout   int `json:"participant_left_timeout,omitempty"`
	ParticipantAbsentTimeout int `json:"participant_absent_timeout,omitempty"`
}

func buildPayload(req Request) createPayload {
	p := createPayload{
		ReplicaID: req.ReplicaID,
		Name:      req.Name,
		Greeting:  req.Greeting,
	}

	if req.Context != "" {
		p.Context = ElaborateContext(req.Context)
		if derived := DeriveGreeting(req.Context); derived != "" {
			p.Greeting = derived
		}
	}

	props := payloadProperties{
		MaxCallDuration:          int(req.Properties.MaxCallDuration / time.Second),
		ParticipantLeftTimeout:   int(req.Properties.ParticipantLeftTimeout / time.Second),
		ParticipantAbsentTimeout: int(req.Properties.ParticipantAbsentTimeout / time.Second),
	}
	if props != (payloadProperties{}) {
		p.Properties = &props
	}

	return p
}

// Create validates the request and POSTs it to the provider. Transient
// failures (5xx, timeout, abort, transport error) are retried up to the
// configured ceiling with linearly increasing backoff; any 4xx is terminal
// and mapped to a client sentinel error.
func (c *Client) Create(ctx context.Context, req Request) (*Conversation, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	body, err := json.Marshal(buildPayload(req))
	if err != nil {
		return nil, err
	}

	var conversation Conversation
	attempt := 0
	err = retry.Do(ctx, httpx.Policy(c.maxRetries, c.baseDelay), func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			c.logger.Debug().Int("attempt", attempt).Msg("retrying conversation create")
		}
		return c.tryCreate(ctx, body, &conversation)
	})
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (c *Client) tryCreate(ctx context.Context, body []byte, out *Conversation) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/conversations", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		// Timeouts surface as context errors here; an aborted attempt is
		// retryable, not a terminal cancellation, until the budget runs out.
		return retry.RetryableError(fmt.Errorf("%w: %v", httpx.ErrTransient, err))
	}

	if httpx.RetryableStatus(resp.StatusCode) {
		httpx.DrainAndClose(resp)
		return retry.RetryableError(fmt.Errorf("%w: provider returned %d", httpx.ErrTransient, resp.StatusCode))
	}

	if resp.StatusCode >= 400 {
		httpx.DrainAndClose(resp)
		return mapStatus(resp.StatusCode)
	}

	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	if out.ConversationID == "" || out.URL == "" {
		return fmt.Errorf("%w: response missing conversation_id or conversation_url", ErrProtocol)
	}
	return nil
}

func mapStatus(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return ErrAuth
	case http.StatusPaymentRequired:
		return ErrQuota
	case http.StatusNotFound:
		return ErrReplicaNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusBadRequest:
		return ErrBadRequest
	default:
		return fmt.Errorf("%w: status %d", ErrBadRequest, code)
	}
}

// Status fetches the conversation's current state with a single GET and no
// retry. It returns nil on ANY failure: callers must treat nil as "unknown,
// keep polling", never as a terminal result.
func (c *Client) Status(ctx context.Context, conversationID string) *ConversationStatus {
	if conversationID == "" {
		return nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"/conversations/"+conversationID, nil)
	if err != nil {
		return nil
	}
	httpReq.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		httpx.DrainAndClose(resp)
		return nil
	}

	var status ConversationStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil
	}
	if status.ConversationID == "" {
		status.ConversationID = conversationID
	}
	return &status
}

// End terminates a conversation with a single DELETE. An empty provider
// response (204 or zero content-length) is success without touching the
// body; a non-JSON body is read as raw text instead of being force-parsed.
func (c *Client) End(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		return fmt.Errorf("%w: conversation id is required", ErrInvalidRequest)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodDelete, c.baseURL+"/conversations/"+conversationID, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", httpx.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		httpx.DrainAndClose(resp)
		if httpx.RetryableStatus(resp.StatusCode) {
			return fmt.Errorf("%w: provider returned %d", httpx.ErrTransient, resp.StatusCode)
		}
		return mapStatus(resp.StatusCode)
	}

	if resp.StatusCode == http.StatusNoContent || resp.ContentLength == 0 {
		return nil
	}

	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		// Some deployments answer DELETE with a plain-text acknowledgement.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return nil
	}

	var ack map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil && err != io.EOF {
		return fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return nil
}
