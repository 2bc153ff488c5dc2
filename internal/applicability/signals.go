package applicability

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/s4cindia/conformance-engine/internal/model"
)

// Signals are the structural booleans detected across the scanned content
// fragments, plus the independent manifest checks and scan coverage.
type Signals struct {
	HasAudio        bool
	HasVideo        bool
	HasIframe       bool
	HasFormControls bool
	HasInteractive  bool
	HasNavLandmark  bool
	HasDataTable    bool
	HasScript       bool
	ExternalURLs    int

	ManifestAudio bool
	ManifestVideo bool

	ScannedFragments int
	TotalFragments   int
	Coverage         float64 // scanned/total, 1.0 for an empty document
}

// HasMedia reports any audio or video signal, markup or manifest.
func (s Signals) HasMedia() bool {
	return s.HasAudio || s.HasVideo || s.ManifestAudio || s.ManifestVideo
}

// HasAudioSignal reports any audio signal, markup or manifest.
func (s Signals) HasAudioSignal() bool {
	return s.HasAudio || s.ManifestAudio
}

var (
	reAudio       = regexp.MustCompile(`(?i)<audio[\s>]`)
	reVideo       = regexp.MustCompile(`(?i)<video[\s>]`)
	reIframe      = regexp.MustCompile(`(?i)<iframe[\s>]`)
	reFormControl = regexp.MustCompile(`(?i)<(input|select|textarea|form)[\s>/]`)
	reInteractive = regexp.MustCompile(`(?i)(<(button|details|summary)[\s>/]|role\s*=\s*"(button|link|switch|checkbox)")`)
	reNavLandmark = regexp.MustCompile(`(?i)(<nav[\s>]|role\s*=\s*"navigation")`)
	reTable       = regexp.MustCompile(`(?i)<table[\s>]`)
	reHeaderCell  = regexp.MustCompile(`(?i)<th[\s>/]`)
	reScript      = regexp.MustCompile(`(?i)<script[\s>]`)
	reExternalURL = regexp.MustCompile(`(?i)https?://[^\s"'<>)]+`)
)

// scanFragments inspects at most cap fragments and merges their signals.
// Fragments that cannot be parsed are skipped; the returned error is
// non-nil only when every fragment of a non-empty document failed.
func scanFragments(fragments []model.ContentFragment, manifest model.FileManifest, maxFragments int) (Signals, error) {
	sig := Signals{
		TotalFragments: len(fragments),
		ManifestAudio:  manifest.HasAudioFiles(),
		ManifestVideo:  manifest.HasVideoFiles(),
		Coverage:       1.0,
	}

	toScan := fragments
	if maxFragments > 0 && len(toScan) > maxFragments {
		toScan = toScan[:maxFragments]
	}

	failures := 0
	for _, frag := range toScan {
		fs, err := scanFragment(frag)
		if err != nil {
			failures++
			continue
		}
		sig.merge(fs)
		sig.ScannedFragments++
	}

	if len(fragments) > 0 {
		sig.Coverage = float64(sig.ScannedFragments) / float64(len(fragments))
	}
	if len(fragments) > 0 && sig.ScannedFragments == 0 {
		return sig, fmt.Errorf("all %d content fragments failed to parse", failures)
	}
	return sig, nil
}

type fragmentSignals struct {
	audio, video, iframe     bool
	formControls, interactive bool
	navLandmark, dataTable    bool
	script                    bool
	externalURLs              int
}

func scanFragment(frag model.ContentFragment) (fragmentSignals, error) {
	if frag.Data == "" {
		return fragmentSignals{}, fmt.Errorf("fragment %s: empty content", frag.Path)
	}
	if !utf8.ValidString(frag.Data) {
		return fragmentSignals{}, fmt.Errorf("fragment %s: invalid encoding", frag.Path)
	}

	data := frag.Data
	fs := fragmentSignals{
		audio:        reAudio.MatchString(data),
		video:        reVideo.MatchString(data),
		iframe:       reIframe.MatchString(data),
		formControls: reFormControl.MatchString(data),
		interactive:  reInteractive.MatchString(data),
		navLandmark:  reNavLandmark.MatchString(data),
		script:       reScript.MatchString(data),
		externalURLs: len(reExternalURL.FindAllString(data, -1)),
	}
	// A data table needs header cells, not just a table element.
	fs.dataTable = reTable.MatchString(data) && reHeaderCell.MatchString(data)
	return fs, nil
}

func (s *Signals) merge(fs fragmentSignals) {
	s.HasAudio = s.HasAudio || fs.audio
	s.HasVideo = s.HasVideo || fs.video
	s.HasIframe = s.HasIframe || fs.iframe
	s.HasFormControls = s.HasFormControls || fs.formControls
	s.HasInteractive = s.HasInteractive || fs.interactive
	s.HasNavLandmark = s.HasNavLandmark || fs.navLandmark
	s.HasDataTable = s.HasDataTable || fs.dataTable
	s.HasScript = s.HasScript || fs.script
	s.ExternalURLs += fs.externalURLs
}
