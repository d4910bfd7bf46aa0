package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func OptionalStringFlag(cmd *cobra.Command, name string) (string, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return "", nil
	}
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return strings.TrimSpace(value), nil
}

func OptionalBoolFlag(cmd *cobra.Command, name string, fallback bool) (bool, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return fallback, nil
	}
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false, fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return value, nil
}

// ParseProjectType normalizes the --type flag of init.
func ParseProjectType(cmd *cobra.Command) (string, error) {
	value, err := OptionalStringFlag(cmd, "type")
	if err != nil {
		return "", err
	}
	switch strings.ToLower(value) {
	case "", "theme", "themes":
		return "themes", nil
	case "plugin", "plugins":
		return "plugins", nil
	default:
		return "", fmt.Errorf("unsupported project type %q (supported: themes, plugins)", value)
	}
}
