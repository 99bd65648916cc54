// ABOUTME: Tests for the install-skill command
// ABOUTME: Verifies installation, overwrite, cancellation and embedded content

package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runInstallSkill(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	cmd := NewInstallSkillCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("install-skill failed: %v", err)
	}
	return output.String()
}

func TestNewInstallSkillCmd(t *testing.T) {
	cmd := NewInstallSkillCmd()
	if cmd.Use != "install-skill" {
		t.Errorf("Use = %q, want %q", cmd.Use, "install-skill")
	}
	yesFlag := cmd.Flags().Lookup("yes")
	if yesFlag == nil {
		t.Fatal("--yes flag should exist")
	}
	if yesFlag.Shorthand != "y" || yesFlag.DefValue != "false" {
		t.Errorf("--yes flag = %+v", yesFlag)
	}
}

func TestInstallSkill_WritesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	output := runInstallSkill(t, "", "--yes")

	dest := filepath.Join(home, ".claude", "skills", "tierworks", "SKILL.md")
	content, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("skill file not written: %v", err)
	}
	if !strings.Contains(string(content), "name: tierworks") {
		t.Error("installed skill should carry the embedded content")
	}
	if !strings.Contains(output, dest) {
		t.Errorf("output should name the destination, got: %s", output)
	}
	if !strings.Contains(output, "Installed tierworks skill") {
		t.Errorf("output should confirm installation, got: %s", output)
	}
}

func TestInstallSkill_Overwrite(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dest := filepath.Join(home, ".claude", "skills", "tierworks", "SKILL.md")
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dest, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	output := runInstallSkill(t, "", "-y")
	if !strings.Contains(output, "already exists") {
		t.Errorf("output should mention the existing file, got: %s", output)
	}
	content, _ := os.ReadFile(dest)
	if string(content) == "old" {
		t.Error("skill file should be overwritten")
	}
}

func TestInstallSkill_Prompt(t *testing.T) {
	tests := []struct {
		name      string
		answer    string
		installed bool
	}{
		{"yes", "y\n", true},
		{"full yes", "YES\n", true},
		{"no", "n\n", false},
		{"empty", "\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			t.Setenv("HOME", home)

			output := runInstallSkill(t, tt.answer)

			_, err := os.Stat(filepath.Join(home, ".claude", "skills", "tierworks", "SKILL.md"))
			if installed := err == nil; installed != tt.installed {
				t.Errorf("installed = %v, want %v", installed, tt.installed)
			}
			if !tt.installed && !strings.Contains(output, "cancelled") {
				t.Errorf("output should report cancellation, got: %s", output)
			}
		})
	}
}

func TestSkillFS_ListsTools(t *testing.T) {
	content, err := skillFS.ReadFile("skill/SKILL.md")
	if err != nil {
		t.Fatalf("embedded skill missing: %v", err)
	}
	for _, tool := range []string{"open_session", "assign_selected", "save_result", "share_session"} {
		if !strings.Contains(string(content), "mcp__tierworks__"+tool) {
			t.Errorf("skill should document %s", tool)
		}
	}
}
