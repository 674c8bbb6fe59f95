package analyzer

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
)

// Analyzer turns review text into structured annotations through an injected LLM.
// It holds no per-call state and is safe for concurrent use.
type Analyzer struct {
	llm    LLMClient
	params GenerationParams
	marker string
	log    logrus.FieldLogger
}

// Option customizes an Analyzer at construction time.
type Option func(*Analyzer)

func WithLogger(l logrus.FieldLogger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.log = l
		}
	}
}

func WithParams(p GenerationParams) Option {
	return func(a *Analyzer) { a.params = p }
}

// WithSuggestionMarker overrides the suffix appended to each suggestion.
func WithSuggestionMarker(marker string) Option {
	return func(a *Analyzer) { a.marker = marker }
}

func New(llm LLMClient, opts ...Option) (*Analyzer, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	a := &Analyzer{
		llm:    llm,
		params: DefaultParams(),
		marker: DefaultSuggestionMarker,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Analyze classifies one review. It fails with *InvalidInputError, *UpstreamError
// or *MalformedResponseError and never returns a partially populated Result.
func (a *Analyzer) Analyze(ctx context.Context, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, &InvalidInputError{Reason: "text is empty"}
	}

	prompt := BuildAnalysisPrompt(text)
	log := a.log.WithField("op", "analyze")
	log.WithFields(logrus.Fields{"stage": "prompt_built", "text_len": len(text)}).Info("analysis prompt built")
	log.WithField("stage", "prompt_built").Debugf("prompt: %s", prompt.User)

	raw, err := a.llm.Complete(ctx, prompt, a.params)
	if err != nil {
		log.WithField("stage", "response_received").WithError(err).Error("backend call failed")
		return Result{}, &UpstreamError{Op: "analyze", Err: err}
	}
	log.WithFields(logrus.Fields{"stage": "response_received", "raw_len": len(raw)}).Info("backend responded")
	log.WithField("stage", "response_received").Debugf("raw response: %s", raw)

	res, notes, err := parseAnalysis(raw)
	if err != nil {
		var mal *MalformedResponseError
		if errors.As(err, &mal) && len(mal.Fields) > 0 {
			log.WithFields(logrus.Fields{"stage": "extraction", "fields": mal.Fields}).Warn("required fields missing or ill-typed")
		} else {
			log.WithField("stage", "extraction").Warn("no JSON object in response")
		}
		return Result{}, err
	}
	entry := log.WithFields(logrus.Fields{"stage": "normalization", "sentiment": res.Sentiment, "aspects": len(res.Aspects)})
	if len(notes) > 0 {
		entry.WithField("corrections", notes).Info("analysis normalized with corrections")
	} else {
		entry.Info("analysis normalized")
	}
	return res, nil
}

// Suggest asks for improvement ideas from aggregated aspects. Empty lists are allowed.
// The advisory "exactly three" in the prompt is not enforced.
func (a *Analyzer) Suggest(ctx context.Context, aspects AspectBag) ([]string, error) {
	prompt := BuildSuggestionPrompt(aspects)
	log := a.log.WithFields(logrus.Fields{
		"op":       "suggest",
		"positive": len(aspects.Positive),
		"negative": len(aspects.Negative),
	})
	log.WithField("stage", "prompt_built").Info("suggestion prompt built")

	raw, err := a.llm.Complete(ctx, prompt, a.params)
	if err != nil {
		log.WithField("stage", "response_received").WithError(err).Error("backend call failed")
		return nil, &UpstreamError{Op: "suggest", Err: err}
	}
	log.WithField("stage", "response_received").Debugf("raw response: %s", raw)

	lines := SplitSuggestions(raw)
	log.WithFields(logrus.Fields{"stage": "suggestions", "count": len(lines)}).Info("suggestions parsed")
	return DecorateSuggestions(lines, a.marker), nil
}
