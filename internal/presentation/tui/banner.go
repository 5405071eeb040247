package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/render"
)

// PrintBanner writes the ASCII banner and version to w.
func PrintBanner(w io.Writer, version string) {
	o := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"     _                            ", "#818cf8"},
		{" ___| |_ ___ _ __  _ __   ___ _ __ ", "#a78bfa"},
		{"/ __| __/ _ \\ '_ \\| '_ \\ / _ \\ '__|", "#c084fc"},
		{"\\__ \\ ||  __/ |_) | |_) |  __/ |   ", "#e879f9"},
		{"|___/\\__\\___| .__/| .__/ \\___|_|   ", "#f472b6"},
		{"            |_|   |_|              ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, o.String(l.text).Foreground(o.Color(l.color)))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, o.String("  v"+v).Faint())
	}
	fmt.Fprintln(w)
}

// StatusLine formats the playback position, status and speed for the player footer.
func StatusLine(o *termenv.Output, pb domain.Playback) string {
	c := render.RenderControls(pb)
	icon, color := "⏸", "#fbbf24"
	switch {
	case pb.Playing:
		icon, color = "▶", "#34d399"
	case pb.Status == domain.StatusComplete:
		icon, color = "■", "#818cf8"
	}
	status := o.String(fmt.Sprintf("%s %s", icon, c.Status)).Foreground(o.Color(color)).Bold()
	return fmt.Sprintf("%s  %s  %s  %d%%", status, c.Position, c.SpeedLabel, c.Progress)
}

// HelpLine lists the player keys.
func HelpLine(o *termenv.Output) string {
	return o.String("space play/pause · n step · b back · r reset · +/- speed · 0-9 jump · q quit").Faint().String()
}
