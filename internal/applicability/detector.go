// Package applicability scans unpacked document content for structural
// signals and emits confidence-scored suggestions that individual
// criteria may not apply. Suggestions are advisory only: a failed scan
// yields no suggestions and never an error, because nothing downstream
// may block on this signal.
package applicability

import (
	"fmt"
	"math"
	"strings"

	"github.com/s4cindia/conformance-engine/internal/config"
	"github.com/s4cindia/conformance-engine/internal/logging"
	"github.com/s4cindia/conformance-engine/internal/model"
)

// TopicAnalyzer is the interface each applicability topic implements.
type TopicAnalyzer interface {
	// Topic returns the topic's short name.
	Topic() string
	// Criteria returns the criterion ids the topic speaks for.
	Criteria() []string
	// Evaluate applies the topic's decision tiers to the scanned signals.
	Evaluate(sig Signals, doc Document) Decision
}

// Document describes the document being scanned.
type Document struct {
	Type string // pdf, epub, docx, html, text
}

// textOnly reports whether the document type cannot embed media or
// interactive content.
func (d Document) textOnly() bool {
	switch strings.ToLower(d.Type) {
	case "text", "txt", "plain", "markdown":
		return true
	}
	return false
}

// Decision is a topic analyzer's verdict before confidence scoring.
type Decision struct {
	Status    model.SuggestedStatus
	Checks    []model.DetectionCheck
	Rationale string
	EdgeCases []string

	// UseFormula selects the shared confidence formula. When false,
	// Confidence holds the topic's fixed value.
	UseFormula bool
	Confidence int

	// Formula inputs: whether manifest files or markup elements relevant
	// to this topic were found.
	RelevantManifest bool
	RelevantMarkup   bool
}

// Detector runs all registered topic analyzers over scanned content.
type Detector struct {
	cfg    config.ApplicabilityConfig
	log    *logging.Logger
	topics []TopicAnalyzer
}

// New creates a Detector with the standard topic set.
func New(cfg config.ApplicabilityConfig, log *logging.Logger) *Detector {
	if cfg.FragmentCap <= 0 {
		cfg.FragmentCap = 50
	}
	return &Detector{
		cfg: cfg,
		log: log.With("applicability"),
		topics: []TopicAnalyzer{
			Multimedia{},
			AudioAutoplay{},
			Forms{},
			BypassBlocks{},
			OnChangeInput{},
		},
	}
}

// Suggest scans the fragments and manifest and returns one suggestion per
// topic. Scan failure returns an empty slice, never an error.
func (d *Detector) Suggest(fragments []model.ContentFragment, manifest model.FileManifest, doc Document) []model.ApplicabilitySuggestion {
	sig, err := scanFragments(fragments, manifest, d.cfg.FragmentCap)
	if err != nil {
		d.log.Warn("content scan failed, skipping applicability suggestions: %v", err)
		return nil
	}
	if sig.Coverage < 1.0 {
		d.log.Debug("partial scan coverage: %d/%d fragments", sig.ScannedFragments, sig.TotalFragments)
	}

	suggestions := make([]model.ApplicabilitySuggestion, 0, len(d.topics))
	for _, topic := range d.topics {
		decision := topic.Evaluate(sig, doc)
		suggestions = append(suggestions, d.score(topic, decision, sig, doc))
	}
	return suggestions
}

// score turns a topic decision into a final suggestion, applying the
// shared confidence formula and coverage penalty where the topic asked
// for them.
func (d *Detector) score(topic TopicAnalyzer, decision Decision, sig Signals, doc Document) model.ApplicabilitySuggestion {
	confidence := decision.Confidence
	rationale := decision.Rationale

	if decision.UseFormula {
		confidence = formulaConfidence(decision, sig, doc)
		if sig.Coverage < 1.0 {
			confidence = applyCoveragePenalty(confidence, sig.Coverage)
			rationale += fmt.Sprintf(" Only %d of %d content fragments were scanned (%.0f%% coverage); unscanned content may contain relevant elements.",
				sig.ScannedFragments, sig.TotalFragments, sig.Coverage*100)
		}
	}

	return model.ApplicabilitySuggestion{
		Topic:           topic.Topic(),
		CriterionIDs:    topic.Criteria(),
		SuggestedStatus: decision.Status,
		Confidence:      confidence,
		Checks:          decision.Checks,
		Rationale:       rationale,
		EdgeCases:       decision.EdgeCases,
	}
}

// formulaConfidence computes the shared confidence score: base 50,
// adjusted by signal presence, clamped to [0, 95].
func formulaConfidence(decision Decision, sig Signals, doc Document) int {
	confidence := 50
	if !decision.RelevantManifest {
		confidence += 15
	}
	if !decision.RelevantMarkup {
		confidence += 15
	}
	if doc.textOnly() {
		confidence += 10
	}
	if sig.ExternalURLs == 0 {
		confidence += 10
	} else {
		confidence -= 20
	}
	if sig.HasScript {
		confidence -= 15
	}
	if sig.HasIframe {
		confidence -= 10
	}

	if confidence > 95 {
		confidence = 95
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}

// applyCoveragePenalty subtracts round((1-coverage)*10) from the
// confidence, never pushing it below 50.
func applyCoveragePenalty(confidence int, coverage float64) int {
	penalty := int(math.Round((1.0 - coverage) * 10))
	if confidence <= 50 {
		return confidence
	}
	reduced := confidence - penalty
	if reduced < 50 {
		return 50
	}
	return reduced
}

func check(name string, passed bool, detail string) model.DetectionCheck {
	return model.DetectionCheck{Name: name, Passed: passed, Detail: detail}
}
