package cmd

import "testing"

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"serve":    false,
		"create":   false,
		"shutdown": false,
		"send":     false,
		"sessions": false,
	}

	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}

	for name, found := range want {
		if !found {
			t.Errorf("command %q is not registered", name)
		}
	}
}

func TestRootCommandUse(t *testing.T) {
	if rootCmd.Use != "wagate" {
		t.Errorf("root command use = %q, want %q", rootCmd.Use, "wagate")
	}
}
