package main

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
)

// resetFlags restores every flag on cmd to its default after the test.
func resetFlags(t *testing.T, cmd *cobra.Command) {
	t.Helper()
	t.Cleanup(func() {
		for _, name := range []string{"delay", "endpoint", "limit", "regions", "provider"} {
			if f := cmd.Flags().Lookup(name); f != nil {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			}
		}
	})
}

func TestEnrichFlags(t *testing.T) {
	resetFlags(t, enrichCmd)

	if err := enrichCmd.Flags().Parse([]string{"--delay", "5s", "--regions", "regions.yaml"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if enrichDelay != 5*time.Second {
		t.Errorf("enrichDelay = %v, want 5s", enrichDelay)
	}
	if enrichRegions != "regions.yaml" {
		t.Errorf("enrichRegions = %q", enrichRegions)
	}
	if !enrichCmd.Flags().Changed("delay") {
		t.Error("expected delay to be marked changed")
	}
	if enrichCmd.Flags().Changed("provider") {
		t.Error("provider was not passed but is marked changed")
	}
}

func TestImportFlags(t *testing.T) {
	t.Run("values bound", func(t *testing.T) {
		resetFlags(t, importCmd)

		if err := importCmd.Flags().Parse([]string{"--endpoint", "http://localhost:9999/graphql", "--limit", "0"}); err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if importEndpoint != "http://localhost:9999/graphql" {
			t.Errorf("importEndpoint = %q", importEndpoint)
		}
		if importLimit != 0 || !importCmd.Flags().Changed("limit") {
			t.Errorf("explicit --limit 0 not honoured: limit=%d changed=%v", importLimit, importCmd.Flags().Changed("limit"))
		}
	})

	t.Run("malformed values rejected", func(t *testing.T) {
		tests := []struct {
			cmd  *cobra.Command
			args []string
		}{
			{importCmd, []string{"--limit", "many"}},
			{enrichCmd, []string{"--delay", "soon"}},
		}
		for _, tt := range tests {
			resetFlags(t, tt.cmd)
			if err := tt.cmd.Flags().Parse(tt.args); err == nil {
				t.Errorf("Parse(%v) expected error", tt.args)
			}
		}
	})
}
