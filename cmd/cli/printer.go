package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/hamed0406/statuswatch/internal/bus"
	"github.com/hamed0406/statuswatch/internal/domain"
	"github.com/hamed0406/statuswatch/internal/scheduler"
)

var (
	onlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"})
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#F25D94", Dark: "#F25D94"})
	unknownStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#AAA", Dark: "#555"})
	pausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#F0E442", Dark: "#F0E442"})

	colID     = lipgloss.NewStyle().Width(38)
	colStatus = lipgloss.NewStyle().Width(10)
	colName   = lipgloss.NewStyle().Width(28)
	colSeen   = lipgloss.NewStyle().Width(16)
)

type printer struct {
	w     io.Writer
	color bool
}

// newPrinter colors output only when f is an interactive terminal.
func newPrinter(f *os.File) *printer {
	return &printer{
		w:     f,
		color: isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()),
	}
}

func (p *printer) paint(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func (p *printer) status(s domain.Status) string {
	switch s {
	case domain.StatusOnline:
		return p.paint(onlineStyle, string(s))
	case domain.StatusOffline:
		return p.paint(offlineStyle, string(s))
	default:
		return p.paint(unknownStyle, string(domain.StatusUnknown))
	}
}

func (p *printer) target(t domain.Target, now time.Time) {
	seen := "never checked"
	if t.LastCheckedAt != nil {
		seen = humanize.RelTime(*t.LastCheckedAt, now, "ago", "from now")
	}
	st := p.status(t.Status)
	if !t.Enabled {
		st = p.paint(pausedStyle, "paused")
	}
	fmt.Fprintln(p.w, lipgloss.JoinHorizontal(lipgloss.Top,
		colID.Render(string(t.ID)),
		colStatus.Render(st),
		colName.Render(t.DisplayName()),
		colSeen.Render(seen),
		t.URL,
	))
}

func (p *printer) outcome(o scheduler.Outcome) {
	if !o.OK {
		fmt.Fprintf(p.w, "%s %s: %s (%s)\n", p.status(o.Status), o.URL, o.Reason, o.Error)
		return
	}
	latency := "n/a"
	if o.Result != nil && o.Result.LatencyMS != nil {
		latency = fmt.Sprintf("%d ms", *o.Result.LatencyMS)
	}
	fmt.Fprintf(p.w, "%s %s latency=%s transitioned=%t notified=%t\n",
		p.status(o.Status), o.URL, latency, o.Transitioned, o.Notified)
}

func (p *printer) transition(t bus.Transition) {
	name := t.Name
	if name == "" {
		name = t.URL
	}
	fmt.Fprintf(p.w, "%s  %s  %s -> %s  (%s)\n",
		humanize.Time(t.At),
		name,
		p.status(domain.Status(t.Previous)),
		p.status(domain.Status(t.New)),
		t.Mode,
	)
}
