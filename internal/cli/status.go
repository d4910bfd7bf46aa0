package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wordup-dev/wordup/internal/fileutil"
	"github.com/wordup-dev/wordup/internal/ignore"
	"github.com/wordup-dev/wordup/internal/state"
)

func RunStatus(cmd *cobra.Command, args []string) error {
	start := time.Now()
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	contentDir, err := resolveContentDir(cmd, rootPath, settings)
	if err != nil {
		return err
	}

	matcher, err := ignore.Load(contentDir)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", ignore.FileName, err)
	}

	st, err := state.Load(contentDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: corrupt state file detected (%v); treating all files as added\n", err)
		st = state.NewState()
	}

	currentHashes, err := fileutil.ScanFileHashes(contentDir, ContentSubDirs, matcher)
	if err != nil {
		return fmt.Errorf("failed to scan files: %w", err)
	}

	diff := st.Compare(currentHashes)
	summary := StatusSummary{
		Mode:       "status",
		ContentDir: contentDir,
		LastRunID:  st.RunID,
		Scanned:    len(currentHashes),
		Clean:      diff.Empty(),
		Added:      diff.Added,
		Changed:    diff.Changed,
		Removed:    diff.Removed,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if st.RunID != "" {
		summary.LastImport = st.UpdatedAt
	}

	return PrintStatusSummary(summary, asJSON)
}
