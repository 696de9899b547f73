package parley

import (
	"context"
	"errors"

	"github.com/corvid-labs/parley/internal/rate"
	"github.com/corvid-labs/parley/translate"
)

const translationPool = "translation"

// TranslateText translates wizard input into the target language. Validation
// and the same-language passthrough run before the hourly quota check, so a
// passthrough never consumes quota and never touches the network.
func (e *Engine) TranslateText(ctx context.Context, req translate.Request) (*translate.Result, error) {
	if e == nil || e.translateClient == nil || e.limiter == nil {
		return nil, ErrEngineNotReady
	}

	if err := translate.Validate(req); err != nil {
		e.metricInc(MetricTranslationFailed)
		return nil, err
	}

	if translate.Passthrough(req) {
		e.metricInc(MetricTranslationPassthrough)
		return &translate.Result{
			TranslatedText:   req.Text,
			DetectedLanguage: req.SourceLanguage,
		}, nil
	}

	if err := e.limiter.Allow(ctx, translationPool, e.config.Translation.HourlyQuota); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			e.metricInc(MetricTranslationRateLimited)
			return nil, ErrRateLimited
		}
		return nil, mapRateErr(err)
	}

	result, err := e.translateClient.Translate(ctx, req)
	if err != nil {
		e.metricInc(MetricTranslationFailed)
		e.logger.Error().Err(err).Str("target", req.TargetLanguage).Msg("translation failed")
		return nil, err
	}

	e.metricInc(MetricTranslationServed)
	return result, nil
}

// SupportedLanguages returns the fixed language set the wizard offers.
func (e *Engine) SupportedLanguages() []translate.Language {
	out := make([]translate.Language, len(translate.SupportedLanguages))
	copy(out, translate.SupportedLanguages)
	return out
}
