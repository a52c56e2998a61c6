package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hamed0406/statuswatch/internal/domain"
	"github.com/hamed0406/statuswatch/internal/urlutil"
)

const (
	emojiOffline = "🔴"
	emojiOnline  = "🟢"
	emojiNeutral = "⚪"

	colorOffline = 0xE74C3C
	colorOnline  = 0x2ECC71
	colorNeutral = 0x95A5A6

	defaultUsername = "statuswatch"
	defaultFooter   = "statuswatch uptime monitor"
)

// EventContext is what the composer needs besides the rule set and target.
// History feeds the uptime and last-failure fields.
type EventContext struct {
	Event            domain.Event
	LatencyMS        *int
	History          []domain.HistoryRecord
	DashboardBaseURL string
	At               time.Time
}

type wording struct {
	title       string
	description string
}

var statusCopy = map[domain.Status]wording{
	domain.StatusOffline: {"{status_emoji} {project_name} is down", "{status_emoji} {project_name} went {status} (was {previous_status})."},
	domain.StatusOnline:  {"{status_emoji} {project_name} is back up", "{status_emoji} {project_name} is {status} again (was {previous_status})."},
}

var actionCopy = map[domain.Action]wording{
	domain.ActionEdit:       {"{status_emoji} {project_name} was edited", "{status_emoji} Monitoring settings for {project_name} changed."},
	domain.ActionDelete:     {"{status_emoji} {project_name} was deleted", "{status_emoji} {project_name} is no longer monitored."},
	domain.ActionPause:      {"{status_emoji} {project_name} paused", "{status_emoji} Checks for {project_name} are paused."},
	domain.ActionResume:     {"{status_emoji} {project_name} resumed", "{status_emoji} Checks for {project_name} resumed. Last known status: {status}."},
	domain.ActionManualPing: {"{status_emoji} Manual ping: {project_name}", "{status_emoji} {project_name} is {status}."},
}

// Composer renders a NotificationRuleSet template into a webhook payload.
type Composer struct{}

func (Composer) Compose(rs domain.NotificationRuleSet, t domain.Target, ec EventContext) Payload {
	tpl := rs.Template
	prev, cur, emoji := statusesOf(t, ec.Event)

	def := defaultCopy(ec.Event)
	title := pick(tpl.TitleTemplate, def.title)
	desc := pick(tpl.DescriptionTemplate, def.description)

	r := strings.NewReplacer(
		"{project_name}", t.DisplayName(),
		"{status}", string(cur),
		"{previous_status}", string(prev),
		"{status_emoji}", emoji,
	)

	at := ec.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	embed := Embed{
		Title:       r.Replace(title),
		Description: r.Replace(desc),
		Color:       colorOf(tpl.Color, emoji),
		Fields:      fields(tpl, ec, at),
		Footer:      Footer{Text: pick(tpl.FooterText, defaultFooter)},
		Timestamp:   at.UTC().Format(time.RFC3339),
	}
	if tpl.ThumbnailURL != "" {
		embed.Thumbnail = &Media{URL: tpl.ThumbnailURL}
	}
	if tpl.ImageURL != "" {
		embed.Image = &Media{URL: tpl.ImageURL}
	}
	if tpl.AuthorName != "" {
		embed.Author = &Author{Name: tpl.AuthorName, URL: tpl.AuthorURL, IconURL: tpl.AuthorIcon}
	}

	p := Payload{
		Username:  pick(tpl.Username, defaultUsername),
		AvatarURL: tpl.AvatarURL,
		Content:   mentions(tpl),
		Embeds:    []Embed{embed},
	}
	if tpl.IncludeButtons {
		if row, ok := buttons(t, ec.DashboardBaseURL); ok {
			p.Components = []ActionRow{row}
		}
	}
	return p
}

// statusesOf returns previous and current status plus the emoji for the
// event. Lifecycle actions other than a manual ping are neutral.
func statusesOf(t domain.Target, ev domain.Event) (prev, cur domain.Status, emoji string) {
	prev, cur = t.Status, t.Status
	switch e := ev.(type) {
	case domain.StatusEvent:
		prev, cur = e.Previous, e.New
		return prev, cur, emojiFor(cur)
	case domain.LifecycleEvent:
		if e.Action == domain.ActionManualPing {
			return prev, cur, emojiFor(cur)
		}
	}
	return prev, cur, emojiNeutral
}

func emojiFor(s domain.Status) string {
	switch s {
	case domain.StatusOffline:
		return emojiOffline
	case domain.StatusOnline:
		return emojiOnline
	}
	return emojiNeutral
}

func colorOf(custom int, emoji string) int {
	if custom != 0 {
		return custom
	}
	switch emoji {
	case emojiOffline:
		return colorOffline
	case emojiOnline:
		return colorOnline
	}
	return colorNeutral
}

func defaultCopy(ev domain.Event) wording {
	switch e := ev.(type) {
	case domain.StatusEvent:
		if c, ok := statusCopy[e.New]; ok {
			return c
		}
	case domain.LifecycleEvent:
		if c, ok := actionCopy[e.Action]; ok {
			return c
		}
	}
	return wording{"{status_emoji} {project_name}", "{status_emoji} {project_name} is {status}."}
}

func pick(v, fallback string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

// mentions orders tokens as everyone, roles, then users.
func mentions(tpl domain.MessageTemplate) string {
	var parts []string
	if tpl.MentionEveryone {
		parts = append(parts, "@everyone")
	}
	for _, role := range tpl.MentionRoles {
		if role = strings.TrimSpace(role); role != "" {
			parts = append(parts, "<@&"+role+">")
		}
	}
	for _, user := range tpl.MentionUsers {
		if user = strings.TrimSpace(user); user != "" {
			parts = append(parts, "<@"+user+">")
		}
	}
	return strings.Join(parts, " ")
}

func fields(tpl domain.MessageTemplate, ec EventContext, now time.Time) []Field {
	out := []Field{}
	if tpl.IncludeUptime {
		if pct, ok := domain.Uptime(ec.History); ok {
			out = append(out, Field{Name: "Uptime", Value: fmt.Sprintf("%.2f%%", pct), Inline: true})
		}
	}
	if tpl.IncludeLatency && ec.LatencyMS != nil {
		out = append(out, Field{Name: "Latency", Value: fmt.Sprintf("%d ms", *ec.LatencyMS), Inline: true})
	}
	if tpl.IncludeLastFailure {
		value := "No failures recorded"
		if rec, ok := domain.LastFailure(ec.History); ok {
			value = humanize.RelTime(rec.RecordedAt, now, "ago", "from now")
		}
		out = append(out, Field{Name: "Last failure", Value: value, Inline: true})
	}
	return out
}

// buttons returns the link row, or false when any link is not absolute.
func buttons(t domain.Target, dashboard string) (ActionRow, bool) {
	links := []Button{
		{Label: "Open dashboard", URL: dashboard},
		{Label: "View history", URL: urlutil.JoinPath(dashboard, "targets", string(t.ID))},
		{Label: "Visit site", URL: t.URL},
	}
	for i := range links {
		if !urlutil.IsAbsolute(links[i].URL) {
			return ActionRow{}, false
		}
		links[i].Type = componentButton
		links[i].Style = buttonStyleLink
	}
	return ActionRow{Type: componentActionRow, Components: links}, true
}
