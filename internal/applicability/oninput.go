package applicability

import "github.com/s4cindia/conformance-engine/internal/model"

// OnChangeInput suggests whether On Input (3.2.2) applies: it only
// matters when changing a control's setting can trigger a context change.
type OnChangeInput struct{}

func (OnChangeInput) Topic() string { return "on-change-input" }

func (OnChangeInput) Criteria() []string { return []string{"3.2.2"} }

func (OnChangeInput) Evaluate(sig Signals, doc Document) Decision {
	checks := []model.DetectionCheck{
		check("form_controls", sig.HasFormControls, "input, select, textarea, or form elements"),
		check("interactive_controls", sig.HasInteractive, "buttons or widget roles"),
		check("script_elements", sig.HasScript, "scripts that could change context on input"),
	}

	switch {
	case sig.HasFormControls && sig.HasScript:
		return Decision{
			Status:     model.SuggestApplicable,
			Checks:     checks,
			Rationale:  "Form controls and scripts are both present; input changes may trigger context changes.",
			Confidence: 85,
		}
	case sig.HasFormControls || sig.HasInteractive || sig.HasScript:
		return Decision{
			Status:     model.SuggestUncertain,
			Checks:     checks,
			Rationale:  "Some interactive capability was detected, but not enough to tell whether input triggers context changes.",
			EdgeCases:  []string{"A static form submitted by an explicit button does not change context on input."},
			Confidence: 60,
		}
	default:
		return Decision{
			Status:           model.SuggestNotApplicable,
			Checks:           checks,
			Rationale:        "No form controls, interactive controls, or scripts were found.",
			UseFormula:       true,
			RelevantManifest: false,
			RelevantMarkup:   sig.HasFormControls || sig.HasInteractive,
		}
	}
}
