package main

import (
	"testing"

	"github.com/wordup-dev/wordup/internal/cli"
)

func TestRootCommandWiresSubcommands(t *testing.T) {
	root := cli.NewRootCommand(version)

	for _, path := range [][]string{
		{"init"},
		{"install"},
		{"import"},
		{"status"},
		{"validate"},
		{"config", "decode"},
		{"config", "show"},
		{"version"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil {
			t.Fatalf("expected command %v: %v", path, err)
		}
		if cmd.RunE == nil && cmd.Run == nil {
			t.Fatalf("expected command %v to be runnable", path)
		}
	}

	importCmd, _, _ := root.Find([]string{"import"})
	for _, flag := range []string{"config", "content", "dry-run", "strict", "json", "watch", "metrics-file"} {
		if importCmd.Flags().Lookup(flag) == nil {
			t.Fatalf("expected import --%s flag", flag)
		}
	}
}
