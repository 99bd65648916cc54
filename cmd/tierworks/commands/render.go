// ABOUTME: Terminal rendering of sessions and saved results as tier rows
// ABOUTME: Tier labels are colored with fatih/color; color is disabled off a TTY
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/harper/tierworks/internal/core"
	"github.com/harper/tierworks/internal/models"
)

var tierColors = map[models.Bucket]*color.Color{
	models.TierS: color.New(color.FgHiYellow, color.Bold),
	models.TierA: color.New(color.FgRed, color.Bold),
	models.TierB: color.New(color.FgGreen, color.Bold),
	models.TierC: color.New(color.FgBlue, color.Bold),
	models.TierD: color.New(color.FgMagenta, color.Bold),
	models.TierU: color.New(color.FgWhite),
}

func tierLabel(b models.Bucket) string {
	for _, def := range models.DefaultTierDefs() {
		if def.ID == b {
			return def.Label
		}
	}
	return b.String()
}

func titles(items []models.Item) string {
	if len(items) == 0 {
		return "-"
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, truncate(it.Title, 40))
	}
	return strings.Join(out, ", ")
}

// renderTiers prints one row per tier in display order
func renderTiers(w io.Writer, tiers models.TierAssignment) {
	for _, t := range models.Tiers {
		label := fmt.Sprintf("%-9s", tierLabel(t))
		fmt.Fprintf(w, "%s %s\n", tierColors[t].Sprint(label), titles(tiers[t]))
	}
}

// renderView prints the tiers, the pool and the current selection
func renderView(w io.Writer, v core.View) {
	fmt.Fprintf(w, "%s\n\n", color.New(color.Bold).Sprint(v.Name))
	renderTiers(w, v.Tiers)
	fmt.Fprintf(w, "\n%-9s %s\n", "Pool", titles(v.Pool))
	if v.Selected != nil {
		fmt.Fprintf(w, "\n%s %s (%s)", color.New(color.FgHiMagenta).Sprint("→"), v.Selected.Title, v.Selected.ID)
		fmt.Fprintf(w, "  %d left in queue\n", v.Queued)
	} else if len(v.Pool) == 0 {
		fmt.Fprintf(w, "\n%s\n", color.New(color.FgGreen).Sprint("Everything is ranked"))
	}
}

// renderResult prints a saved result
func renderResult(w io.Writer, r *models.SavedResult) {
	title := r.DisplayTitle()
	if title == "" {
		title = r.ID
	}
	fmt.Fprintf(w, "%s\n", color.New(color.Bold).Sprint(title))
	fmt.Fprintf(w, "Saved %s  (%s)\n\n", formatTime(r.Created()), r.ID)
	renderTiers(w, r.Tiers)
}

// warnUnranked tells the user that items are still waiting in the pool
func warnUnranked(w io.Writer, sess *core.Session) {
	if quiet {
		return
	}
	if n := len(sess.View().Pool); n > 0 {
		fmt.Fprintf(w, "%s %d item(s) are still unranked in the pool\n", color.New(color.FgYellow).Sprint("warning:"), n)
	}
}
