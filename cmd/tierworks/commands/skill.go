// ABOUTME: Install the agent skill describing the tierworks MCP tools
// ABOUTME: Embeds the skill definition and writes it to ~/.claude/skills/tierworks/

package commands

import (
	"bufio"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

//go:embed skill/SKILL.md
var skillFS embed.FS

// NewInstallSkillCmd creates the install-skill command
func NewInstallSkillCmd() *cobra.Command {
	var skipConfirm bool

	cmd := &cobra.Command{
		Use:   "install-skill",
		Short: "Install the tierworks agent skill",
		Long: `Install the tierworks skill for MCP-aware coding agents.

This copies the skill definition to ~/.claude/skills/tierworks/
so the agent knows when and how to drive the tierworks tools.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return installSkill(cmd, skipConfirm)
		},
	}

	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}

func skillPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".claude", "skills", "tierworks", "SKILL.md"), nil
}

func installSkill(cmd *cobra.Command, skipConfirm bool) error {
	out := cmd.OutOrStdout()

	dest, err := skillPath()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, "Tierworks agent skill")
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "The skill lets your agent open templates, rank items into tiers,")
	_, _ = fmt.Fprintln(out, "and save or share results through the tierworks MCP server.")
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Destination:")
	_, _ = fmt.Fprintf(out, "  %s\n", dest)
	_, _ = fmt.Fprintln(out)

	if _, err := os.Stat(dest); err == nil {
		_, _ = fmt.Fprintln(out, "Note: A skill file already exists and will be overwritten.")
		_, _ = fmt.Fprintln(out)
	}

	if !skipConfirm {
		_, _ = fmt.Fprint(out, "Install the tierworks skill? [y/N] ")
		response, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && response == "" {
			return fmt.Errorf("failed to read response: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			_, _ = fmt.Fprintln(out, "Installation cancelled.")
			return nil
		}
		_, _ = fmt.Fprintln(out)
	}

	content, err := skillFS.ReadFile("skill/SKILL.md")
	if err != nil {
		return fmt.Errorf("failed to read embedded skill: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create skill directory: %w", err)
	}
	if err := os.WriteFile(dest, content, 0644); err != nil {
		return fmt.Errorf("failed to write skill file: %w", err)
	}

	_, _ = fmt.Fprintln(out, "✓ Installed tierworks skill")
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Register the server with: tierworks mcp")
	return nil
}
