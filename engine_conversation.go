package parley

import (
	"context"
	"errors"
	"time"

	"github.com/corvid-labs/parley/convo"
	"github.com/corvid-labs/parley/internal/rate"
)

const conversationPool = "conversation"

// MinutesRemaining returns the conversation-minutes balance. An unseeded
// balance reports the configured default without writing it.
func (e *Engine) MinutesRemaining(ctx context.Context) (int, error) {
	if e == nil || e.limiter == nil {
		return 0, ErrEngineNotReady
	}

	minutes, seeded, err := e.limiter.Minutes(ctx)
	if err != nil {
		return 0, mapRateErr(err)
	}
	if !seeded {
		return e.config.Conversation.MinutesQuota, nil
	}
	return minutes, nil
}

// SetMinutesRemaining replaces the conversation-minutes balance.
func (e *Engine) SetMinutesRemaining(ctx context.Context, minutes int) error {
	if e == nil || e.limiter == nil {
		return ErrEngineNotReady
	}
	return mapRateErr(e.limiter.SetMinutes(ctx, minutes))
}

// ConsumeMinutes deducts call time from the balance, flooring at zero, and
// returns the new balance. The balance is seeded lazily from config on first
// consumption.
func (e *Engine) ConsumeMinutes(ctx context.Context, minutes int) (int, error) {
	if e == nil || e.limiter == nil {
		return 0, ErrEngineNotReady
	}

	if err := e.seedMinutes(ctx); err != nil {
		return 0, err
	}
	remaining, err := e.limiter.ConsumeMinutes(ctx, minutes)
	if err != nil {
		return 0, mapRateErr(err)
	}
	return remaining, nil
}

func (e *Engine) seedMinutes(ctx context.Context) error {
	_, seeded, err := e.limiter.Minutes(ctx)
	if err != nil {
		return mapRateErr(err)
	}
	if !seeded {
		if err := e.limiter.SetMinutes(ctx, e.config.Conversation.MinutesQuota); err != nil {
			return mapRateErr(err)
		}
	}
	return nil
}

func mapRateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, rate.ErrRedisUnavailable) {
		return ErrStoreUnavailable
	}
	return err
}

// CreateConversation launches an avatar conversation. Local gates run before
// any network call, in order: request validation, the minutes balance, then
// the hourly create quota. A request rejected by a local gate never reaches
// the provider.
func (e *Engine) CreateConversation(ctx context.Context, req convo.Request) (*convo.Conversation, error) {
	if e == nil || e.convoClient == nil || e.limiter == nil {
		return nil, ErrEngineNotReady
	}

	if err := convo.ValidateRequest(req); err != nil {
		e.metricInc(MetricConversationFailed)
		return nil, err
	}

	minutes, err := e.MinutesRemaining(ctx)
	if err != nil {
		return nil, err
	}
	if minutes <= 0 {
		e.metricInc(MetricConversationQuotaExhausted)
		return nil, ErrQuotaExhausted
	}

	if err := e.limiter.Allow(ctx, conversationPool, e.config.Conversation.HourlyQuota); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			e.metricInc(MetricConversationRateLimited)
			return nil, ErrRateLimited
		}
		return nil, mapRateErr(err)
	}

	start := e.now()
	conversation, err := e.convoClient.Create(ctx, req)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricConversationCreateLatency, e.now().Sub(start))
	}
	if err != nil {
		e.metricInc(MetricConversationFailed)
		e.logger.Error().Err(err).Str("replica_id", req.ReplicaID).Msg("conversation create failed")
		return nil, err
	}

	e.metricInc(MetricConversationCreated)
	e.logger.Info().
		Str("conversation_id", conversation.ConversationID).
		Msg("conversation created")
	return conversation, nil
}

// ConversationStatus fetches the current provider-side state with a single
// request. A nil result means unknown, not ended.
func (e *Engine) ConversationStatus(ctx context.Context, conversationID string) *convo.ConversationStatus {
	if e == nil || e.convoClient == nil {
		return nil
	}
	return e.convoClient.Status(ctx, conversationID)
}

// EndConversation terminates a running conversation at the provider.
func (e *Engine) EndConversation(ctx context.Context, conversationID string) error {
	if e == nil || e.convoClient == nil {
		return ErrEngineNotReady
	}

	if err := e.convoClient.End(ctx, conversationID); err != nil {
		return err
	}
	e.metricInc(MetricConversationEnded)
	return nil
}

// PollConversation watches a conversation until it reaches a terminal state
// or the context is cancelled. Poll failures back off to the error interval
// and keep going; only a terminal status or cancellation stops the loop.
func (e *Engine) PollConversation(ctx context.Context, conversationID string) (*convo.ConversationStatus, error) {
	if e == nil || e.convoClient == nil {
		return nil, ErrEngineNotReady
	}

	interval := e.config.Conversation.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	errorBackoff := e.config.Conversation.PollErrorBackoff
	if errorBackoff <= 0 {
		errorBackoff = interval
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		status := e.convoClient.Status(ctx, conversationID)
		if status.Terminal() {
			return status, nil
		}

		next := interval
		if status == nil {
			next = errorBackoff
		}
		timer.Reset(next)
	}
}
