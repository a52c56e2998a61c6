package domain

// Action is a user-driven lifecycle change on a target.
type Action string

const (
	ActionEdit       Action = "edit"
	ActionDelete     Action = "delete"
	ActionPause      Action = "pause"
	ActionResume     Action = "resume"
	ActionManualPing Action = "manualPing"
)

// Event is either a StatusEvent or a LifecycleEvent.
type Event interface {
	Target() TargetID
	isEvent()
}

type StatusEvent struct {
	TargetID TargetID
	Previous Status
	New      Status
}

type LifecycleEvent struct {
	TargetID TargetID
	Action   Action
}

func (e StatusEvent) Target() TargetID    { return e.TargetID }
func (e LifecycleEvent) Target() TargetID { return e.TargetID }

func (StatusEvent) isEvent()    {}
func (LifecycleEvent) isEvent() {}

// TriggerMode says what invoked the orchestrator and therefore which side
// effects a probe has. The set is closed: Scheduled, External, Direct, Manual.
type TriggerMode interface {
	ModeName() string
	isTriggerMode()
}

// Scheduled is the internal timer (cron or keep-alive loop).
type Scheduled struct{}

// External is a third-party caller hitting the trigger endpoint.
type External struct{}

// Direct probes without persisting or notifying.
type Direct struct{}

// Manual is a user-requested single-target ping. Silent suppresses every
// notification regardless of the rule set.
type Manual struct {
	Silent bool
}

func (Scheduled) ModeName() string { return "scheduled" }
func (External) ModeName() string  { return "external" }
func (Direct) ModeName() string    { return "direct" }
func (m Manual) ModeName() string {
	if m.Silent {
		return "manual_silent"
	}
	return "manual"
}

func (Scheduled) isTriggerMode() {}
func (External) isTriggerMode()  {}
func (Direct) isTriggerMode()    {}
func (Manual) isTriggerMode()    {}

// ModeEffects spells out what a trigger mode is allowed to do.
type ModeEffects struct {
	Persist           bool
	NotifyTransitions bool
	NotifyManualPing  bool
}

func EffectsOf(m TriggerMode) ModeEffects {
	switch m := m.(type) {
	case Scheduled, External:
		return ModeEffects{Persist: true, NotifyTransitions: true}
	case Direct:
		return ModeEffects{}
	case Manual:
		return ModeEffects{Persist: true, NotifyTransitions: !m.Silent, NotifyManualPing: !m.Silent}
	}
	return ModeEffects{}
}
