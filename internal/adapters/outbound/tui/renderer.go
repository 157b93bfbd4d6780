// Package tui renders broker output for humans on a terminal. The MCP
// surface always speaks JSON; this is only used by the one-shot CLI
// commands.
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/promptbroker/promptbroker/internal/application"
	"github.com/promptbroker/promptbroker/internal/domain/routing"
)

// ── Claude-inspired warm palette ──
var (
	accent  = lipgloss.Color("#D97706") // amber
	fg      = lipgloss.Color("#E8E6E3") // warm light gray
	dim     = lipgloss.Color("#6B7280") // muted gray
	faint   = lipgloss.Color("#3F3F46") // very dim
	success = lipgloss.Color("#22C55E") // green
	warning = lipgloss.Color("#F59E0B") // amber-yellow
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(fg)
	dimStyle    = lipgloss.NewStyle().Foreground(dim)
	faintStyle  = lipgloss.NewStyle().Foreground(faint)
	scoreStyle  = lipgloss.NewStyle().Bold(true).Foreground(success)
	reasonStyle = lipgloss.NewStyle().Foreground(warning)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 2)

	separatorLine = faintStyle.Render(strings.Repeat("─", 56))
)

// RenderResult renders one routing decision with its trace.
func RenderResult(result *routing.Result) string {
	var b strings.Builder

	header := headerStyle.Render("promptbroker") + "  " +
		titleStyle.Render(result.Profile.Name)
	detail := fmt.Sprintf("score %s   consistency %s%%   reason %s",
		scoreStyle.Render(fmt.Sprintf("%d", result.Score)),
		scoreStyle.Render(fmt.Sprintf("%.1f", result.Consistency)),
		reasonStyle.Render(string(result.Reason)))
	b.WriteString(boxStyle.Render(header + "\n" + detail))
	b.WriteString("\n\n")

	b.WriteString(titleStyle.Render("Metadata"))
	b.WriteString("\n")
	meta := result.Metadata
	b.WriteString(dimStyle.Render(fmt.Sprintf(
		"  intent=%s domain=%s complexity=%s tone=%s sensitivity=%s words=%d",
		meta.Intent, orDash(meta.Domain), meta.Complexity, meta.Tone, meta.Sensitivity, meta.WordCount)))
	b.WriteString("\n")
	if len(meta.Topics) > 0 {
		b.WriteString(dimStyle.Render("  topics: " + strings.Join(meta.Topics, ", ")))
		b.WriteString("\n")
	}
	if len(meta.Capabilities) > 0 {
		b.WriteString(dimStyle.Render("  capabilities: " + strings.Join(meta.Capabilities, ", ")))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Trace"))
	b.WriteString("\n")
	for _, name := range sortedScoreNames(result.Trace.Scores) {
		marker := "  "
		if name == result.Profile.Name {
			marker = headerStyle.Render("→ ")
		}
		b.WriteString(fmt.Sprintf("%s%s %s\n", marker,
			dimStyle.Render(fmt.Sprintf("%-36s", name)),
			titleStyle.Render(fmt.Sprintf("%d", result.Trace.Scores[name]))))
	}
	for _, name := range result.Trace.Disqualified {
		b.WriteString(faintStyle.Render(fmt.Sprintf("  %-36s disqualified\n", name)))
	}
	if len(result.Trace.Rules) > 0 {
		b.WriteString(faintStyle.Render("  " + strings.Join(result.Trace.Rules, "  ")))
		b.WriteString("\n")
	}

	if result.Profile.Instructions != "" {
		b.WriteString("\n")
		b.WriteString(separatorLine)
		b.WriteString("\n")
		b.WriteString(result.Profile.Instructions)
		b.WriteString("\n")
	}
	return b.String()
}

// RenderProfileList renders the catalog as a compact table.
func RenderProfileList(profiles []application.ProfileSummary) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("promptbroker"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d profiles\n", len(profiles))))
	b.WriteString(separatorLine)
	b.WriteString("\n")
	for _, p := range profiles {
		flags := p.Complexity
		if p.Fallback {
			flags += ", fallback"
		}
		b.WriteString(fmt.Sprintf("%s %s\n",
			titleStyle.Render(fmt.Sprintf("%-36s", p.Name)),
			faintStyle.Render("("+flags+")")))
		b.WriteString(dimStyle.Render("  " + p.Description))
		b.WriteString("\n")
		if len(p.Domains) > 0 || len(p.Capabilities) > 0 {
			b.WriteString(faintStyle.Render(fmt.Sprintf("  domains: %s  capabilities: %s",
				strings.Join(p.Domains, ", "), strings.Join(p.Capabilities, ", "))))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func sortedScoreNames(scores map[string]int) []string {
	names := make([]string, 0, len(scores))
	for n := range scores {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if scores[names[i]] != scores[names[j]] {
			return scores[names[i]] > scores[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
