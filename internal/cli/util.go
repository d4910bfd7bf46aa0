package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wordup-dev/wordup/internal/config"
	"github.com/wordup-dev/wordup/internal/importer"
	"github.com/wordup-dev/wordup/internal/store"
)

// ContentSubDirs are the content sub directories tracked by status and validate.
var ContentSubDirs = []string{importer.MediaDir, store.PostTypePost, store.PostTypePage}

func resolveWorkingDirectory() (string, error) {
	rootPath, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	return rootPath, nil
}

func loadSettings() (*config.Settings, error) {
	settings, err := config.LoadSettings(config.DefaultEnvFiles)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// resolveContentDir returns --content when set, otherwise the configured
// content directory, made absolute against rootPath.
func resolveContentDir(cmd *cobra.Command, rootPath string, settings *config.Settings) (string, error) {
	dir, err := OptionalStringFlag(cmd, "content")
	if err != nil {
		return "", err
	}
	if dir == "" && settings != nil {
		dir = settings.ContentDir
	}
	if dir == "" {
		dir = "content"
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(rootPath, dir)
	}
	return dir, nil
}

// loadProject loads the project config. A missing config is not an error and
// yields nil.
func loadProject(cmd *cobra.Command, rootPath string) (*config.Project, error) {
	file, err := OptionalStringFlag(cmd, "config")
	if err != nil {
		return nil, err
	}
	project, err := config.LoadProject(file, rootPath)
	if err != nil {
		if file == "" && errors.Is(err, config.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}
	return project, nil
}
