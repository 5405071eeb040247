package render

import (
	"fmt"
	"strings"
)

// Markdown formats a view for glamour, MCP clients and trace output.
func Markdown(v View) string {
	var b strings.Builder
	f := v.Frame

	fmt.Fprintf(&b, "### Step %s · %s\n\n", v.Controls.Position, f.Phase)
	fmt.Fprintf(&b, "%s\n\n", f.Description)
	if f.Highlight != "" {
		fmt.Fprintf(&b, "`%s`\n\n", f.Highlight)
	}

	if len(f.Variables) > 0 {
		b.WriteString("| Variable | Value |\n|---|---|\n")
		for _, kv := range f.Variables {
			fmt.Fprintf(&b, "| `%s` | `%s` |\n", escapeCell(kv.Name), escapeCell(kv.Value))
		}
		b.WriteString("\n")
	}

	for _, l := range f.Lanes {
		fmt.Fprintf(&b, "**%s:** ", l.Name)
		if len(l.Items) == 0 {
			b.WriteString("_empty_\n\n")
			continue
		}
		items := make([]string, len(l.Items))
		for i, it := range l.Items {
			items[i] = "`" + it + "`"
		}
		b.WriteString(strings.Join(items, " → "))
		b.WriteString("\n\n")
	}

	if len(f.Output) > 0 {
		b.WriteString("**Output**\n\n```text\n")
		for _, line := range f.Output {
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("```\n\n")
	}

	fmt.Fprintf(&b, "---\n%s\n", controlsLine(v.Controls))
	return b.String()
}

// Text formats a view as plain text, one frame per call.
func Text(v View) string {
	var b strings.Builder
	f := v.Frame

	fmt.Fprintf(&b, "[%s] %s: %s\n", v.Controls.Position, f.Phase, f.Description)
	if f.Highlight != "" {
		fmt.Fprintf(&b, "  > %s\n", f.Highlight)
	}
	for _, kv := range f.Variables {
		fmt.Fprintf(&b, "  %s = %s\n", kv.Name, kv.Value)
	}
	for _, l := range f.Lanes {
		fmt.Fprintf(&b, "  %s: [%s]\n", l.Name, strings.Join(l.Items, ", "))
	}
	for _, line := range f.Output {
		fmt.Fprintf(&b, "  | %s\n", line)
	}
	return b.String()
}

func controlsLine(c Controls) string {
	icon := "⏸"
	if c.Playing {
		icon = "▶"
	}
	return fmt.Sprintf("%s %s · %s · %d%%", icon, c.Status, c.SpeedLabel, c.Progress)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
