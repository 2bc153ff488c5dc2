package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/s4cindia/conformance-engine/internal/analysis"
	"github.com/s4cindia/conformance-engine/internal/applicability"
	"github.com/s4cindia/conformance-engine/internal/catalog"
	"github.com/s4cindia/conformance-engine/internal/classify"
	"github.com/s4cindia/conformance-engine/internal/config"
	"github.com/s4cindia/conformance-engine/internal/logging"
	"github.com/s4cindia/conformance-engine/internal/model"
	"github.com/s4cindia/conformance-engine/internal/review"
	"github.com/s4cindia/conformance-engine/internal/storage"
	"github.com/s4cindia/conformance-engine/internal/version"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// auditInput is the wire shape of an audit-results file.
type auditInput struct {
	JobID       string           `json:"jobId"`
	Edition     string           `json:"edition"`
	FileName    string           `json:"fileName"`
	MimeType    string           `json:"mimeType"`
	Issues      []model.RawIssue `json:"issues"`
	Remediation []struct {
		RuleCode    string    `json:"ruleCode"`
		CriterionID string    `json:"criterionId"`
		Status      string    `json:"status"`
		Method      string    `json:"method"`
		Timestamp   time.Time `json:"timestamp"`
	} `json:"remediation"`
}

func main() {
	log := logging.Default()

	var (
		cfgPath    string
		auditPath  string
		contentDir string
		actor      string
	)
	flag.StringVar(&cfgPath, "config", "", "path to YAML config file")
	flag.StringVar(&auditPath, "audit", "", "path to audit-results JSON file (required)")
	flag.StringVar(&contentDir, "content", "", "directory of unpacked document content for applicability scanning")
	flag.StringVar(&actor, "actor", "confengine", "actor recorded on the created draft and version")
	flag.Parse()

	if auditPath == "" {
		fmt.Fprintln(os.Stderr, "usage: confengine -audit results.json [-config conf.yaml] [-content dir]")
		os.Exit(2)
	}

	cfg := config.Defaults()
	if cfgPath != "" {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			log.Error("Failed to load config: %v", err)
			os.Exit(1)
		}
	}
	log.SetLevel(logging.ParseLevel(cfg.Logging.Level))
	log.Info("confengine %s starting", Version)

	cat, err := catalog.Load()
	if err != nil {
		log.Error("Failed to load criteria catalog: %v", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Error("Failed to open SQLite store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	input, err := readAudit(auditPath)
	if err != nil {
		log.Error("Failed to read audit results: %v", err)
		os.Exit(1)
	}

	issues := model.NormalizeIssues(input.Issues)
	var history []model.RemediationChange
	for _, r := range input.Remediation {
		history = append(history, model.RemediationChange{
			RuleCode:    r.RuleCode,
			CriterionID: r.CriterionID,
			Status:      r.Status,
			Method:      r.Method,
			Timestamp:   r.Timestamp,
		})
	}

	analyzer := analysis.New(cat, cfg.Analysis, log)
	result, err := analyzer.Analyze(analysis.Request{
		JobID:       input.JobID,
		Edition:     input.Edition,
		Issues:      issues,
		Remediation: history,
	})
	if err != nil {
		log.Error("Analysis failed: %v", err)
		os.Exit(1)
	}

	// Applicability suggestions are advisory; a missing content dir just
	// means the report lacks N/A hints.
	var suggestions []model.ApplicabilitySuggestion
	if contentDir != "" {
		fragments, manifest := loadContent(contentDir, log)
		detector := applicability.New(cfg.Applicability, log)
		doc := applicability.Document{Type: docTypeOf(input.FileName, input.MimeType)}
		suggestions = detector.Suggest(fragments, manifest, doc)
	}

	classCounts := map[classify.FixClass]int{}
	for _, issue := range issues {
		c := classify.Classify(issue, classify.Context{})
		classCounts[c.Class]++
	}

	agg := review.NewAggregator(store, cat, log, nil)
	draft, err := agg.InitializeFromVerification(review.InitRequest{
		JobID:    input.JobID,
		Edition:  input.Edition,
		FileName: input.FileName,
		MimeType: input.MimeType,
		Entries:  verificationEntries(result),
		Actor:    actor,
	})
	if err != nil {
		log.Error("Draft initialization failed: %v", err)
		os.Exit(1)
	}

	mgr := version.NewManager(store, cfg.Versioning, log)
	v, err := mgr.Create(draft.ID, snapshotOf(input, result), actor, "initial analysis")
	if err != nil {
		log.Error("Version creation failed: %v", err)
		os.Exit(1)
	}

	printSummary(result, suggestions, classCounts, draft, v)
}

func readAudit(path string) (auditInput, error) {
	var input auditInput
	data, err := os.ReadFile(path)
	if err != nil {
		return input, err
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return input, fmt.Errorf("parsing %s: %w", path, err)
	}
	return input, nil
}

// loadContent walks the content directory: markup files become fragments,
// every file lands in the manifest.
func loadContent(dir string, log *logging.Logger) ([]model.ContentFragment, model.FileManifest) {
	var fragments []model.ContentFragment
	var manifest model.FileManifest

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		manifest = append(manifest, path)
		switch strings.ToLower(filepath.Ext(path)) {
		case ".html", ".htm", ".xhtml", ".xml":
			data, readErr := os.ReadFile(path)
			if readErr != nil {
				log.Debug("skipping unreadable fragment %s: %v", path, readErr)
				return nil
			}
			fragments = append(fragments, model.ContentFragment{Path: path, Data: string(data)})
		}
		return nil
	})
	if err != nil {
		log.Warn("content walk failed: %v", err)
	}
	return fragments, manifest
}

func docTypeOf(fileName, mimeType string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".txt", ".md":
		return "text"
	case ".epub":
		return "epub"
	case ".pdf":
		return "pdf"
	default:
		if strings.HasPrefix(mimeType, "text/plain") {
			return "text"
		}
		return "document"
	}
}

// verificationEntries seeds the draft from the automated analysis; human
// reviewers refine these during review.
func verificationEntries(result *model.AnalysisResult) []model.VerificationEntry {
	entries := make([]model.VerificationEntry, 0, len(result.Criteria))
	for _, ca := range result.Criteria {
		status := "failed"
		if ca.Status == model.StatusSupports {
			status = "passed"
		}
		entries = append(entries, model.VerificationEntry{
			CriterionID:     ca.CriterionID,
			Status:          status,
			Method:          "automated",
			Notes:           strings.Join(ca.Findings, " "),
			IsNotApplicable: ca.Status == model.StatusNotApplicable,
			Confidence:      ca.Confidence,
		})
	}
	return entries
}

func snapshotOf(input auditInput, result *model.AnalysisResult) model.ReportSnapshot {
	snapshot := model.ReportSnapshot{
		Status:  overallStatus(result),
		Edition: input.Edition,
		ProductInfo: map[string]any{
			"fileName": input.FileName,
			"jobId":    input.JobID,
		},
	}
	for _, ca := range result.Criteria {
		remarks := ""
		if len(ca.Findings) > 0 {
			remarks = ca.Findings[0]
		}
		snapshot.Criteria = append(snapshot.Criteria, model.SnapshotCriterion{
			ID:               ca.CriterionID,
			ConformanceLevel: string(ca.Status),
			Remarks:          remarks,
		})
	}
	return snapshot
}

func overallStatus(result *model.AnalysisResult) string {
	switch {
	case result.Summary.DoesNotSupport > 0:
		return string(model.StatusDoesNotSupport)
	case result.Summary.Partial > 0:
		return string(model.StatusPartialSupports)
	default:
		return string(model.StatusSupports)
	}
}

func printSummary(result *model.AnalysisResult, suggestions []model.ApplicabilitySuggestion,
	classCounts map[classify.FixClass]int, draft model.Draft, v model.Version) {

	fmt.Printf("Job %s (%s): %d criteria analyzed, %.1f%% conformance\n",
		result.JobID, result.Edition, result.Summary.Total, result.Summary.ConformancePct)
	fmt.Printf("  supports: %d  partially_supports: %d  does_not_support: %d  not_applicable: %d\n",
		result.Summary.Supports, result.Summary.Partial,
		result.Summary.DoesNotSupport, result.Summary.NotApplicable)
	if len(result.Unmapped) > 0 {
		fmt.Printf("  unmapped rules: %s\n", strings.Join(result.Unmapped, ", "))
	}
	fmt.Printf("  fix classes: autofix=%d quickfix=%d manual=%d\n",
		classCounts[classify.Autofix], classCounts[classify.Quickfix], classCounts[classify.Manual])
	for _, s := range suggestions {
		if s.SuggestedStatus == model.SuggestNotApplicable {
			fmt.Printf("  N/A suggestion [%s] confidence %d: %s\n", s.Topic, s.Confidence, strings.Join(s.CriterionIDs, ", "))
		}
	}
	fmt.Printf("  draft %s created, version %d written for report\n", draft.ID, v.Number)
}
