package model

// SettingsStep is the state of the multi-step numeric input flow for one (chat, user).
type SettingsStep string

const (
	StepIdle               SettingsStep = ""
	StepAwaitingChance     SettingsStep = "awaiting_chance"
	StepAwaitingMaxLen     SettingsStep = "awaiting_maxlen"
	StepAwaitingMinSamples SettingsStep = "awaiting_minsamples"
)

func (s SettingsStep) Pending() bool {
	switch s {
	case StepAwaitingChance, StepAwaitingMaxLen, StepAwaitingMinSamples:
		return true
	}
	return false
}

// DialogKey identifies a settings dialog: a user editing one chat's settings.
type DialogKey struct {
	ChatID int64
	UserID int64
}

// DialogState holds the user's progress in the settings flow.
type DialogState struct {
	Step SettingsStep `json:"step"`
}
