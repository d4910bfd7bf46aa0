package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wordup-dev/wordup/internal/config"
	"github.com/wordup-dev/wordup/internal/fileutil"
)

// RunConfigDecode prints the project carried by a base64 config blob as JSON.
func RunConfigDecode(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one base64 argument")
	}
	project, err := config.Decode(strings.TrimSpace(args[0]))
	if err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	validate, err := OptionalBoolFlag(cmd, "validate", false)
	if err != nil {
		return err
	}
	if validate {
		if err := project.Validate(); err != nil {
			return fmt.Errorf("failed to validate config: %w", err)
		}
	}
	return fileutil.PrintJSON(project)
}

// RunConfigShow prints the project config found for the working directory.
func RunConfigShow(cmd *cobra.Command, args []string) error {
	rootPath, err := resolveWorkingDirectory()
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
	return fileutil.PrintJSON(project)
}
