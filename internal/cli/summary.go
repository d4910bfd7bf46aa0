package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/wordup-dev/wordup/internal/document"
	"github.com/wordup-dev/wordup/internal/fileutil"
	"github.com/wordup-dev/wordup/internal/importer"
)

type PhaseSummary struct {
	Name string `json:"name"`
	importer.Counts
}

type RunSummary struct {
	Mode       string            `json:"mode"`
	RunID      string            `json:"run_id,omitempty"`
	Store      string            `json:"store"`
	ContentDir string            `json:"content_dir"`
	DryRun     bool              `json:"dry_run"`
	Phases     []PhaseSummary    `json:"phases"`
	DurationMS int64             `json:"duration_ms"`
	Skipped    []string          `json:"skipped,omitempty"`
	Failed     []string          `json:"failed,omitempty"`
	Reasons    map[string]string `json:"reasons,omitempty"`
	StateFile  string            `json:"state_file,omitempty"`
	Aborted    bool              `json:"aborted"`
	Error      string            `json:"error,omitempty"`
}

type StatusSummary struct {
	Mode       string    `json:"mode"`
	ContentDir string    `json:"content_dir"`
	LastRunID  string    `json:"last_run_id,omitempty"`
	LastImport time.Time `json:"last_import,omitempty"`
	Scanned    int       `json:"scanned"`
	Clean      bool      `json:"clean"`
	Added      []string  `json:"added"`
	Changed    []string  `json:"changed"`
	Removed    []string  `json:"removed"`
	DurationMS int64     `json:"duration_ms"`
}

type MediaCheck struct {
	File string `json:"file"`
	MIME string `json:"mime"`
}

type ValidateSummary struct {
	Mode         string                `json:"mode"`
	RootPath     string                `json:"root_path"`
	ContentDir   string                `json:"content_dir"`
	ConfigFile   string                `json:"config_file,omitempty"`
	Healthy      bool                  `json:"healthy"`
	ConfigErrors []string              `json:"config_errors,omitempty"`
	Documents    int                   `json:"documents"`
	Importable   int                   `json:"importable"`
	Issues       []document.ParseIssue `json:"issues,omitempty"`
	Media        []MediaCheck          `json:"media,omitempty"`
	Missing      []string              `json:"missing,omitempty"`
	Suggestions  []string              `json:"suggestions,omitempty"`
}

// NewRunSummary condenses an import result.
func NewRunSummary(res *importer.Result, storeName, contentDir string, dryRun bool) RunSummary {
	summary := RunSummary{
		Mode:       "import",
		RunID:      res.RunID,
		Store:      storeName,
		ContentDir: contentDir,
		DryRun:     dryRun,
		Phases:     make([]PhaseSummary, 0, len(res.PhaseOrder)),
		DurationMS: res.Duration().Milliseconds(),
		Reasons:    make(map[string]string),
		Aborted:    res.Aborted,
		Error:      res.Error,
	}
	for _, name := range res.PhaseOrder {
		summary.Phases = append(summary.Phases, PhaseSummary{Name: name, Counts: *res.Phases[name]})
	}
	for _, doc := range res.Documents {
		key := doc.PostType + "/" + doc.File
		switch doc.Outcome {
		case importer.OutcomeSkipped:
			summary.Skipped = append(summary.Skipped, key)
		case importer.OutcomeFailed:
			summary.Failed = append(summary.Failed, key)
		default:
			continue
		}
		summary.Reasons[key] = doc.Reason
	}
	return summary
}

func PrintRunSummary(summary RunSummary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(summary)
	}

	mode := summary.Mode
	if summary.DryRun {
		mode += " (dry-run)"
	}
	status := "complete"
	if summary.Aborted {
		status = "aborted"
	}
	fmt.Printf("%s %s in %dms (store=%s)\n", mode, status, summary.DurationMS, summary.Store)
	fmt.Printf("content: %s\n", summary.ContentDir)
	for _, phase := range summary.Phases {
		fmt.Printf("  %-6s created=%d skipped=%d failed=%d deleted=%d\n",
			phase.Name, phase.Created, phase.Skipped, phase.Failed, phase.Deleted)
	}
	if len(summary.Skipped) > 0 {
		fmt.Printf("skipped (%d): %s\n", len(summary.Skipped), SummarizePaths(summary.Skipped, 8))
	}
	if len(summary.Failed) > 0 {
		fmt.Printf("failed (%d): %s\n", len(summary.Failed), SummarizePaths(summary.Failed, 8))
	}
	for _, file := range append(append([]string(nil), summary.Skipped...), summary.Failed...) {
		if reason := summary.Reasons[file]; reason != "" {
			fmt.Printf("  %s <- %s\n", file, reason)
		}
	}
	if summary.StateFile != "" {
		fmt.Printf("state: %s\n", summary.StateFile)
	}
	if summary.Error != "" {
		fmt.Printf("error: %s\n", summary.Error)
	}
	return nil
}

func PrintStatusSummary(summary StatusSummary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(summary)
	}

	last := "never"
	if !summary.LastImport.IsZero() {
		last = summary.LastImport.Format(time.RFC3339)
	}
	fmt.Printf("status: scanned=%d added=%d changed=%d removed=%d last_import=%s\n",
		summary.Scanned, len(summary.Added), len(summary.Changed), len(summary.Removed), last)
	if summary.Clean {
		fmt.Println("content is in sync with the last import")
		return nil
	}
	if len(summary.Added) > 0 {
		fmt.Printf("added files (%d): %s\n", len(summary.Added), SummarizePaths(summary.Added, 8))
	}
	if len(summary.Changed) > 0 {
		fmt.Printf("changed files (%d): %s\n", len(summary.Changed), SummarizePaths(summary.Changed, 8))
	}
	if len(summary.Removed) > 0 {
		fmt.Printf("removed files (%d): %s\n", len(summary.Removed), SummarizePaths(summary.Removed, 8))
	}
	return nil
}

func PrintValidateSummary(summary ValidateSummary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(summary)
	}

	status := "issues"
	if summary.Healthy {
		status = "ok"
	}
	fmt.Printf("validate: %s\n", status)
	config := summary.ConfigFile
	if config == "" {
		config = "none"
	}
	fmt.Printf("config: %s errors=%d\n", config, len(summary.ConfigErrors))
	for _, msg := range summary.ConfigErrors {
		fmt.Printf("  %s\n", msg)
	}
	fmt.Printf("documents: total=%d importable=%d media=%d\n", summary.Documents, summary.Importable, len(summary.Media))
	for _, issue := range summary.Issues {
		fmt.Printf("  %s %s/%s: %s\n", issue.Severity, issue.PostType, issue.File, issue.Message)
	}
	for _, media := range summary.Media {
		fmt.Printf("  media %s (%s)\n", media.File, media.MIME)
	}
	if len(summary.Missing) > 0 {
		fmt.Printf("missing (%d): %s\n", len(summary.Missing), strings.Join(summary.Missing, ", "))
	}
	for _, suggestion := range summary.Suggestions {
		fmt.Printf("next: %s\n", suggestion)
	}
	return nil
}

func SummarizePaths(paths []string, max int) string {
	if len(paths) <= max {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s ... (+%d more)", strings.Join(paths[:max], ", "), len(paths)-max)
}
