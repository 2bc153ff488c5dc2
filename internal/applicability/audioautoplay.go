package applicability

import "github.com/s4cindia/conformance-engine/internal/model"

// AudioAutoplay suggests whether Audio Control (1.4.2) applies: it only
// matters when audio can start automatically.
type AudioAutoplay struct{}

func (AudioAutoplay) Topic() string { return "audio-autoplay" }

func (AudioAutoplay) Criteria() []string { return []string{"1.4.2"} }

func (AudioAutoplay) Evaluate(sig Signals, doc Document) Decision {
	checks := []model.DetectionCheck{
		check("audio_elements", sig.HasAudio, "audio elements in markup"),
		check("audio_files", sig.ManifestAudio, "audio file extensions in the package manifest"),
		check("script_elements", sig.HasScript, "scripts that could start playback"),
		check("iframe_elements", sig.HasIframe, "iframes that could embed audio"),
	}

	switch {
	case sig.HasAudioSignal():
		return Decision{
			Status:     model.SuggestApplicable,
			Checks:     checks,
			Rationale:  "Audio content is present; automatic playback must be controllable.",
			Confidence: 85,
		}
	case sig.HasScript || sig.HasIframe:
		return Decision{
			Status:     model.SuggestUncertain,
			Checks:     checks,
			Rationale:  "No audio was detected, but scripts or iframes could introduce audio at runtime.",
			EdgeCases:  []string{"Script-generated audio (Web Audio API) leaves no audio element to detect."},
			Confidence: 60,
		}
	default:
		return Decision{
			Status:           model.SuggestNotApplicable,
			Checks:           checks,
			Rationale:        "No audio elements, audio files, scripts, or iframes were found.",
			UseFormula:       true,
			RelevantManifest: sig.ManifestAudio,
			RelevantMarkup:   sig.HasAudio,
		}
	}
}
