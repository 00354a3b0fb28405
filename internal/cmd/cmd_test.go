package cmd

import (
	"testing"
)

func findCommand(t *testing.T, name string) *commandInfo {
	t.Helper()
	for _, c := range rootCmd.Commands() {
		if c.Name() == name {
			return &commandInfo{name: c.Name(), groupID: c.GroupID}
		}
	}
	t.Fatalf("command %q not registered", name)
	return nil
}

type commandInfo struct {
	name    string
	groupID string
}

func TestCommandRegistration(t *testing.T) {
	tests := []struct {
		name    string
		groupID string
	}{
		{"load", groupAnalysis},
		{"run", groupAnalysis},
		{"elbow", groupAnalysis},
		{"report", groupAnalysis},
		{"init", groupSetup},
		{"config", groupSetup},
		{"version", groupSetup},
	}

	for _, tt := range tests {
		c := findCommand(t, tt.name)
		if c.groupID != tt.groupID {
			t.Errorf("%s: group = %q, want %q", tt.name, c.groupID, tt.groupID)
		}
	}
}

func TestGroupsRegistered(t *testing.T) {
	groups := rootCmd.Groups()
	seen := map[string]bool{}
	for _, g := range groups {
		seen[g.ID] = true
	}
	if !seen[groupAnalysis] || !seen[groupSetup] {
		t.Fatalf("missing command groups, got %v", seen)
	}
}

func TestRunFlagsRegistered(t *testing.T) {
	for _, flag := range []string{"k", "restarts", "max-iterations", "seed", "status", "no-export"} {
		if runCmd.Flags().Lookup(flag) == nil {
			t.Errorf("run command missing --%s", flag)
		}
	}
}

func TestElbowFlagsRegistered(t *testing.T) {
	for _, flag := range []string{"kmin", "kmax", "restarts", "seed", "workers", "pick"} {
		if elbowCmd.Flags().Lookup(flag) == nil {
			t.Errorf("elbow command missing --%s", flag)
		}
	}
}
