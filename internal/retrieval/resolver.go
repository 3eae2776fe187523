package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/healthdesk/assistant/internal/knowledge"
	"github.com/healthdesk/assistant/internal/observability"
)

// Fixed payload texts.
const (
	PromptText   = "Please describe your symptoms or ask a question, for example \"headache\" or \"nearest pharmacy\"."
	FallbackText = "Sorry, I couldn't find an exact match for your question. Try describing your main symptom in a few words."
)

// Stage names the pipeline step that produced a response.
type Stage string

const (
	StageEmpty      Stage = "empty"
	StageNavigation Stage = "navigation"
	StageKnowledge  Stage = "knowledge"
	StageSpecialist Stage = "specialist"
	StageFallback   Stage = "fallback"
)

// Response is the payload returned to callers.
type Response struct {
	Text       string   `json:"text"`
	Anchors    []string `json:"anchors"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Resolution is a Response plus the diagnostics of how it was produced.
type Resolution struct {
	Response   Response         `json:"response"`
	Stage      Stage            `json:"stage"`
	Intent     Intent           `json:"intent,omitempty"`
	Match      *knowledge.Match `json:"match,omitempty"`
	Suggestion *Suggestion      `json:"suggestion,omitempty"`
	Hedged     bool             `json:"hedged,omitempty"`
}

// Answerer resolves a raw query. Implementations must be safe for concurrent use.
type Answerer interface {
	Resolve(ctx context.Context, raw string) Resolution
}

// Config tunes the resolver.
type Config struct {
	// HedgeThreshold is the confidence below which a knowledge answer is prefixed with a
	// "Did you mean" clarification.
	HedgeThreshold float64
	// MinMatchConfidence is the confidence below which a knowledge match is discarded and
	// the query moves on to the specialist heuristic. Zero uses every match.
	MinMatchConfidence float64
}

// DefaultConfig returns the default resolver configuration.
func DefaultConfig() Config {
	return Config{
		HedgeThreshold:     0.65,
		MinMatchConfidence: 0.5,
	}
}

// Resolver runs the resolution pipeline. It holds no mutable state.
type Resolver struct {
	logger      *observability.Logger
	metrics     *observability.Metrics
	base        *knowledge.Base
	matcher     *knowledge.Matcher
	navigation  *NavigationClassifier
	specialists *SpecialistHeuristic
	config      Config
	fingerprint string
}

// NewResolver creates a resolver over base. logger and metrics may be nil. Negative
// thresholds are replaced by their defaults; zero is taken literally.
func NewResolver(base *knowledge.Base, logger *observability.Logger, metrics *observability.Metrics, cfg Config) *Resolver {
	defaults := DefaultConfig()
	if cfg.HedgeThreshold < 0 {
		cfg.HedgeThreshold = defaults.HedgeThreshold
	}
	if cfg.MinMatchConfidence < 0 {
		cfg.MinMatchConfidence = defaults.MinMatchConfidence
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	return &Resolver{
		logger:      logger,
		metrics:     metrics,
		base:        base,
		matcher:     knowledge.NewMatcher(base),
		navigation:  NewNavigationClassifier(),
		specialists: NewSpecialistHeuristic(),
		config:      cfg,
		fingerprint: resolverFingerprint(base, cfg),
	}
}

func resolverFingerprint(base *knowledge.Base, cfg Config) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%g|%g", base.Fingerprint(), cfg.HedgeThreshold, cfg.MinMatchConfidence))
	return hex.EncodeToString(sum[:])
}

// Fingerprint identifies the knowledge base and thresholds behind this resolver's answers.
// Two resolvers with equal fingerprints resolve every query the same way.
func (r *Resolver) Fingerprint() string {
	return r.fingerprint
}

// Base returns the knowledge base the resolver answers from.
func (r *Resolver) Base() *knowledge.Base {
	return r.base
}

// Config returns the effective configuration.
func (r *Resolver) Config() Config {
	return r.config
}

// Answer resolves raw and returns only the payload.
func (r *Resolver) Answer(raw string) Response {
	return r.Resolve(context.Background(), raw).Response
}

// Resolve runs raw through navigation, knowledge lookup, the specialist heuristic and the
// generic fallback, returning at the first step that produces a result. It never fails.
func (r *Resolver) Resolve(ctx context.Context, raw string) Resolution {
	start := time.Now()
	res := r.resolve(raw)

	r.metrics.RecordAnswer(ctx, string(res.Stage))
	if res.Response.Confidence != nil {
		r.metrics.RecordConfidence(ctx, *res.Response.Confidence)
	}

	event := r.logger.WithContext(ctx).Debug().
		Str("stage", string(res.Stage)).
		Dur("elapsed", time.Since(start))
	if res.Intent != "" {
		event = event.Str("intent", string(res.Intent))
	}
	if res.Match != nil {
		event = event.
			Str("matched_key", res.Match.Key).
			Int("edit_distance", res.Match.EditDistance).
			Float64("confidence", knowledge.Confidence(*res.Match))
	}
	if res.Suggestion != nil {
		event = event.Str("specialty", res.Suggestion.Specialty)
	}
	event.Msg("Resolved query")

	return res
}

func (r *Resolver) resolve(raw string) Resolution {
	if strings.TrimSpace(raw) == "" {
		return Resolution{
			Stage:    StageEmpty,
			Response: Response{Text: PromptText, Anchors: []string{}},
		}
	}

	if intent, ok := r.navigation.Detect(raw); ok {
		resp, _ := NavigationResponse(intent)
		return Resolution{Stage: StageNavigation, Intent: intent, Response: resp}
	}

	match, found := r.matcher.FindBestMatch(raw)
	if found {
		if res, ok := r.knowledgeResolution(match); ok {
			return res
		}
	}

	var matchRef *knowledge.Match
	if found {
		matchRef = &match
	}

	if s, ok := r.specialists.Suggest(raw); ok {
		return Resolution{
			Stage:      StageSpecialist,
			Match:      matchRef,
			Suggestion: &s,
			Response: Response{
				Text:    fmt.Sprintf("Suggested specialist: %s. The specialist directory lists clinics and how to book an appointment.", s.Specialty),
				Anchors: []string{s.Page},
			},
		}
	}

	return Resolution{
		Stage:    StageFallback,
		Match:    matchRef,
		Response: Response{Text: FallbackText, Anchors: []string{}},
	}
}

func (r *Resolver) knowledgeResolution(match knowledge.Match) (Resolution, bool) {
	confidence := knowledge.Confidence(match)
	if confidence < r.config.MinMatchConfidence {
		return Resolution{}, false
	}

	entry, ok := r.base.Lookup(match.Key)
	if !ok {
		return Resolution{}, false
	}

	text := entry.Advice
	hedged := confidence < r.config.HedgeThreshold
	if hedged {
		text = fmt.Sprintf("Did you mean %q? %s", entry.Key, entry.Advice)
	}

	return Resolution{
		Stage:  StageKnowledge,
		Match:  &match,
		Hedged: hedged,
		Response: Response{
			Text:       text,
			Anchors:    AnchorsFor(entry),
			Confidence: &confidence,
		},
	}, true
}
