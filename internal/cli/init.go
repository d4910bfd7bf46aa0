package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wordup-dev/wordup/internal/fileutil"
	"github.com/wordup-dev/wordup/internal/ignore"
)

const ignoreTemplate = `# Files matched here are never imported.
# A pattern with a slash matches the path below the content directory,
# otherwise the file name. Prefix with ! to re-include.
# drafts/*
`

const projectTemplate = `slug: %s
type: %s
wpInstall:
  title: %s
  adminUser: admin
  adminEmail: admin@example.com
  adminPassword: admin
  roles: []
  users: []
`

const homeTemplate = `---
title: Home
menu: Main
---
<p>Welcome.</p>
`

func RunInit(cmd *cobra.Command, args []string) error {
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}
	contentDir, err := resolveContentDir(cmd, rootPath, nil)
	if err != nil {
		return err
	}
	projectType, err := ParseProjectType(cmd)
	if err != nil {
		return err
	}
	slug, err := OptionalStringFlag(cmd, "slug")
	if err != nil {
		return err
	}
	if slug == "" {
		slug = strings.ToLower(filepath.Base(rootPath))
	}

	for _, sub := range ContentSubDirs {
		if err := os.MkdirAll(filepath.Join(contentDir, sub), 0o755); err != nil {
			return fmt.Errorf("failed to create content directory: %w", err)
		}
	}

	files := []struct {
		path string
		data string
	}{
		{filepath.Join(contentDir, ignore.FileName), ignoreTemplate},
		{filepath.Join(contentDir, "page", "home.html"), homeTemplate},
		{filepath.Join(rootPath, "wordup.yaml"), fmt.Sprintf(projectTemplate, slug, projectType, slug)},
	}
	created := make([]string, 0, len(files))
	for _, f := range files {
		wrote, err := fileutil.WriteIfMissing(f.path, []byte(f.data), 0o644)
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", f.path, err)
		}
		if wrote {
			rel, _ := filepath.Rel(rootPath, f.path)
			created = append(created, filepath.ToSlash(rel))
		}
	}

	if len(created) > 0 {
		fmt.Printf("Created: %s\n", strings.Join(created, ", "))
	}
	fmt.Printf("Initialized content directory at %s\n", contentDir)
	return nil
}
