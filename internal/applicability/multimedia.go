package applicability

import "github.com/s4cindia/conformance-engine/internal/model"

// Multimedia suggests whether the time-based-media criteria (1.2.x) apply.
type Multimedia struct{}

func (Multimedia) Topic() string { return "multimedia" }

func (Multimedia) Criteria() []string {
	return []string{"1.2.1", "1.2.2", "1.2.3", "1.2.4", "1.2.5"}
}

// Evaluate applies the multimedia decision tiers: no media and no iframe
// means the criteria likely do not apply; an iframe without detected media
// is uncertain because it can host an embedded player; any media signal
// means they apply.
func (Multimedia) Evaluate(sig Signals, doc Document) Decision {
	checks := []model.DetectionCheck{
		check("audio_elements", sig.HasAudio, "audio elements in markup"),
		check("video_elements", sig.HasVideo, "video elements in markup"),
		check("iframe_elements", sig.HasIframe, "iframes that could embed a media player"),
		check("audio_files", sig.ManifestAudio, "audio file extensions in the package manifest"),
		check("video_files", sig.ManifestVideo, "video file extensions in the package manifest"),
	}

	switch {
	case sig.HasMedia():
		return Decision{
			Status:     model.SuggestApplicable,
			Checks:     checks,
			Rationale:  "Audio or video content was detected; the time-based media criteria apply.",
			Confidence: 90,
		}
	case sig.HasIframe:
		return Decision{
			Status:     model.SuggestUncertain,
			Checks:     checks,
			Rationale:  "No audio or video was detected, but iframes are present and may embed a media player.",
			EdgeCases:  []string{"An iframe can load a third-party media player whose content this scan cannot see."},
			Confidence: 60,
		}
	default:
		return Decision{
			Status:           model.SuggestNotApplicable,
			Checks:           checks,
			Rationale:        "No audio or video elements in the markup and no media files in the package manifest.",
			EdgeCases:        []string{"Media referenced only from scripts or external URLs is not detected."},
			UseFormula:       true,
			RelevantManifest: sig.ManifestAudio || sig.ManifestVideo,
			RelevantMarkup:   sig.HasAudio || sig.HasVideo,
		}
	}
}
