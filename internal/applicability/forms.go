package applicability

import "github.com/s4cindia/conformance-engine/internal/model"

// Forms suggests whether the input-assistance criteria apply to the
// document.
type Forms struct{}

func (Forms) Topic() string { return "forms" }

func (Forms) Criteria() []string {
	return []string{"1.3.5", "3.3.1", "3.3.2", "3.3.3", "3.3.4"}
}

func (Forms) Evaluate(sig Signals, doc Document) Decision {
	checks := []model.DetectionCheck{
		check("form_controls", sig.HasFormControls, "input, select, textarea, or form elements"),
		check("interactive_controls", sig.HasInteractive, "buttons or widget roles"),
		check("script_elements", sig.HasScript, "scripts that could inject form controls"),
	}

	switch {
	case sig.HasFormControls:
		return Decision{
			Status:     model.SuggestApplicable,
			Checks:     checks,
			Rationale:  "Form controls were detected; the input-assistance criteria apply.",
			Confidence: 90,
		}
	case sig.HasScript:
		return Decision{
			Status:     model.SuggestUncertain,
			Checks:     checks,
			Rationale:  "No form controls in the static markup, but scripts could inject them at runtime.",
			EdgeCases:  []string{"Single-page applications typically render their forms entirely from script."},
			Confidence: 60,
		}
	default:
		return Decision{
			Status:           model.SuggestNotApplicable,
			Checks:           checks,
			Rationale:        "No form controls were found in the scanned content.",
			EdgeCases:        []string{"PDF AcroForm fields are reported through the manifest path only when exported."},
			UseFormula:       true,
			RelevantManifest: false,
			RelevantMarkup:   sig.HasFormControls || sig.HasInteractive,
		}
	}
}
