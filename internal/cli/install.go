package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wordup-dev/wordup/internal/config"
	"github.com/wordup-dev/wordup/internal/fileutil"
	"github.com/wordup-dev/wordup/internal/provision"
	"github.com/wordup-dev/wordup/internal/store"
)

// InstallSummary is printed after provisioning.
type InstallSummary struct {
	Mode    string           `json:"mode"`
	Project string           `json:"project"`
	SiteURL string           `json:"site_url"`
	AdminID store.ID         `json:"admin_id,omitempty"`
	Steps   []provision.Step `json:"steps"`
	Error   string           `json:"error,omitempty"`
}

// RunInstall installs WordPress with the administrator, plugins and themes
// declared in the project config.
func RunInstall(cmd *cobra.Command, args []string) error {
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	log := settings.Logger()

	scaffold, err := OptionalBoolFlag(cmd, "scaffold", false)
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}

	project, err := loadProject(cmd, rootPath)
	if err != nil {
		return err
	}
	if project == nil {
		return fmt.Errorf("failed to load project config: %w", config.ErrNotFound)
	}
	if err := project.Validate(); err != nil {
		return fmt.Errorf("failed to validate project config: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	installer := provision.New(newWPCLI(settings), log)
	res, installErr := installer.Install(ctx, project, provision.Options{
		SiteURL:  settings.SiteURL(),
		Scaffold: scaffold,
	})

	summary := InstallSummary{Mode: "install", Project: project.Slug, SiteURL: settings.SiteURL()}
	if res != nil {
		summary.AdminID = res.AdminID
		summary.Steps = res.Steps
	}
	if installErr != nil {
		summary.Error = installErr.Error()
	}
	if err := PrintInstallSummary(summary, asJSON); err != nil {
		return err
	}
	if installErr != nil {
		return fmt.Errorf("failed to install: %w", installErr)
	}
	if summary.AdminID != store.ID(settings.AdminID) {
		log.WithField("admin_id", summary.AdminID).Warn("administrator id differs from WORDUP_ADMIN_ID, set it before importing")
	}
	return nil
}

func PrintInstallSummary(summary InstallSummary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(summary)
	}

	status := "complete"
	if summary.Error != "" {
		status = "failed"
	}
	fmt.Printf("install %s: %s at %s (%d steps)\n", status, summary.Project, summary.SiteURL, len(summary.Steps))
	for _, step := range summary.Steps {
		if step.Item != "" {
			fmt.Printf("  %s %s\n", step.Name, step.Item)
			continue
		}
		fmt.Printf("  %s\n", step.Name)
	}
	if summary.AdminID != store.NoID {
		fmt.Printf("administrator id: %d\n", summary.AdminID)
	}
	if summary.Error != "" {
		fmt.Printf("error: %s\n", summary.Error)
	}
	return nil
}
