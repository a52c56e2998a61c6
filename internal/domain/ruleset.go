package domain

// Frequency narrows which status transitions are reported.
type Frequency string

const (
	FrequencyAll              Frequency = "all"
	FrequencyStatusChangeOnly Frequency = "statusChangeOnly"
	FrequencyDowntimeOnly     Frequency = "downtimeOnly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyAll, FrequencyStatusChangeOnly, FrequencyDowntimeOnly:
		return true
	}
	return false
}

// NotificationRuleSet is the per-install notification configuration. It is
// loaded once per cycle and passed down explicitly.
type NotificationRuleSet struct {
	Enabled bool   `json:"enabled"`
	SinkURL string `json:"sink_url"`

	NotifyOnOnline      bool `json:"notify_on_online"`
	NotifyOnOffline     bool `json:"notify_on_offline"`
	NotifyOnEdit        bool `json:"notify_on_edit"`
	NotifyOnDelete      bool `json:"notify_on_delete"`
	NotifyOnPauseResume bool `json:"notify_on_pause_resume"`
	NotifyOnManualPing  bool `json:"notify_on_manual_ping"`

	Frequency Frequency `json:"frequency"`

	// Empty means every target.
	SelectedTargetIDs []TargetID `json:"selected_target_ids"`

	Template MessageTemplate `json:"template"`
}

// Selects reports whether the rule set applies to id.
func (r NotificationRuleSet) Selects(id TargetID) bool {
	if len(r.SelectedTargetIDs) == 0 {
		return true
	}
	for _, s := range r.SelectedTargetIDs {
		if s == id {
			return true
		}
	}
	return false
}

// MessageTemplate holds presentation settings. The core only substitutes
// placeholders into the title and description.
type MessageTemplate struct {
	Username            string `json:"username,omitempty"`
	AvatarURL           string `json:"avatar_url,omitempty"`
	TitleTemplate       string `json:"title_template,omitempty"`
	DescriptionTemplate string `json:"description_template,omitempty"`
	// Color is a 24-bit RGB value; zero picks a status based default.
	Color int `json:"color,omitempty"`

	MentionEveryone bool     `json:"mention_everyone"`
	MentionRoles    []string `json:"mention_roles,omitempty"`
	MentionUsers    []string `json:"mention_users,omitempty"`

	IncludeUptime      bool `json:"include_uptime"`
	IncludeLatency     bool `json:"include_latency"`
	IncludeLastFailure bool `json:"include_last_failure"`
	IncludeButtons     bool `json:"include_buttons"`

	FooterText   string `json:"footer_text,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	AuthorName   string `json:"author_name,omitempty"`
	AuthorURL    string `json:"author_url,omitempty"`
	AuthorIcon   string `json:"author_icon_url,omitempty"`
}
