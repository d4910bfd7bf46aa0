package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wordup",
		Short: "Provision WordPress and import local content into it",
		Long: `Wordup installs WordPress from a project config and imports a content
directory into it: custom roles and users from the project config, media
files, then posts and pages written as front-matter documents.

Environment: WORDUP_SERVER, WORDUP_PORT, WORDUP_CONTENT_DIR, WORDUP_WP_PATH,
WORDUP_WP_BIN, WORDUP_ALLOW_ROOT, WORDUP_ADMIN_ID and WORDUP_LOG_LEVEL, also
read from .env and .env.local.`,
		SilenceUsage: true,
	}

	// Core Commands
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a content directory skeleton and a wordup.yaml",
		RunE:  RunInit,
	}
	initCmd.Flags().String("content", "", "Content directory (default: $WORDUP_CONTENT_DIR or content)")
	initCmd.Flags().String("type", "themes", "Project type: themes|plugins")
	initCmd.Flags().String("slug", "", "Project slug (default: current directory name)")

	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Install WordPress with the administrator, plugins and themes from the project config",
		RunE:  RunInstall,
	}
	installCmd.Flags().String("config", "", "Project config file (default: wordup.yaml or package.json)")
	installCmd.Flags().Bool("scaffold", false, "Scaffold a starter theme or plugin named after the project")
	installCmd.Flags().Bool("json", false, "Print machine-readable install summary")

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import roles, users, media, posts and pages",
		RunE:  RunImport,
	}
	importCmd.Flags().String("config", "", "Project config file (default: wordup.yaml or package.json)")
	importCmd.Flags().String("content", "", "Content directory (default: $WORDUP_CONTENT_DIR)")
	importCmd.Flags().Bool("dry-run", false, "Import into an in-memory store instead of WordPress")
	importCmd.Flags().Bool("strict", false, "Abort on the first failure of any kind")
	importCmd.Flags().Bool("json", false, "Print machine-readable run summary")
	importCmd.Flags().Bool("watch", false, "Re-run the import when content changes")
	importCmd.Flags().String("metrics-file", "", "Write Prometheus textfile metrics to this path")

	// Inspect Commands
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show content added, changed or removed since the last import",
		RunE:  RunStatus,
	}
	statusCmd.Flags().String("content", "", "Content directory (default: $WORDUP_CONTENT_DIR)")
	statusCmd.Flags().Bool("json", false, "Print machine-readable status output")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the project config and every content document",
		RunE:  RunValidate,
	}
	validateCmd.Flags().String("config", "", "Project config file (default: wordup.yaml or package.json)")
	validateCmd.Flags().String("content", "", "Content directory (default: $WORDUP_CONTENT_DIR)")
	validateCmd.Flags().Bool("json", false, "Print machine-readable validation output")

	// Config Commands
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect project configuration",
	}
	decodeCmd := &cobra.Command{
		Use:   "decode <base64>",
		Short: "Decode a base64 JSON project config and print it",
		Args:  cobra.ExactArgs(1),
		RunE:  RunConfigDecode,
	}
	decodeCmd.Flags().Bool("validate", false, "Validate the decoded config")
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the project config found in the working directory",
		RunE:  RunConfigShow,
	}
	showCmd.Flags().String("config", "", "Project config file (default: wordup.yaml or package.json)")
	configCmd.AddCommand(decodeCmd, showCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("wordup %s\n", version)
		},
	}

	rootCmd.AddCommand(
		initCmd,
		installCmd,
		importCmd,
		statusCmd,
		validateCmd,
		configCmd,
		versionCmd,
	)

	return rootCmd
}
