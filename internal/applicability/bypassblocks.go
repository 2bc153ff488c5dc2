package applicability

import "github.com/s4cindia/conformance-engine/internal/model"

// BypassBlocks suggests whether Bypass Blocks (2.4.1) applies: it only
// matters when content blocks repeat across pages.
type BypassBlocks struct{}

func (BypassBlocks) Topic() string { return "bypass-blocks" }

func (BypassBlocks) Criteria() []string { return []string{"2.4.1"} }

func (BypassBlocks) Evaluate(sig Signals, doc Document) Decision {
	checks := []model.DetectionCheck{
		check("nav_landmarks", sig.HasNavLandmark, "nav elements or navigation roles"),
		check("multiple_fragments", sig.TotalFragments > 1, "more than one content document"),
	}

	switch {
	case sig.HasNavLandmark:
		return Decision{
			Status:     model.SuggestApplicable,
			Checks:     checks,
			Rationale:  "Navigation landmarks were detected; repeated blocks need a bypass mechanism.",
			Confidence: 85,
		}
	case sig.TotalFragments > 1:
		return Decision{
			Status:     model.SuggestUncertain,
			Checks:     checks,
			Rationale:  "The document has multiple content files; repeated header or navigation blocks may exist without explicit landmarks.",
			EdgeCases:  []string{"Repeated blocks built from plain divs carry no landmark this scan can detect."},
			Confidence: 60,
		}
	default:
		return Decision{
			Status:           model.SuggestNotApplicable,
			Checks:           checks,
			Rationale:        "Single content document with no navigation landmarks; there are no repeated blocks to bypass.",
			UseFormula:       true,
			RelevantManifest: false,
			RelevantMarkup:   sig.HasNavLandmark,
		}
	}
}
