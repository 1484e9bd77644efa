package model

// Accepted ranges for the numeric chat settings. The store does not enforce them;
// they are checked by whoever collects the values from users.
const (
	MinAutoReplyChanceN = 1
	MaxAutoReplyChanceN = 20

	MinStoreTextLen = 10
	MaxStoreTextLen = 400

	MinMinSamples = 2
	MaxMinSamples = 200
)

// ChatSettings is the per-chat configuration record. It is always saved as a whole.
type ChatSettings struct {
	AutoReplyEnabled bool    `json:"autoReplyEnabled"`
	AutoReplyChanceN int     `json:"autoReplyChanceN"` // reply once in N stored messages
	MaxStoreTextLen  int     `json:"maxStoreTextLen"`
	MinSamples       int     `json:"minSamples"`
	DefaultGenSize   GenSize `json:"defaultGenSize"`
}

// DefaultChatSettings returns the record every chat starts with.
func DefaultChatSettings() ChatSettings {
	return ChatSettings{
		AutoReplyEnabled: true,
		AutoReplyChanceN: 3,
		MaxStoreTextLen:  80,
		MinSamples:       4,
		DefaultGenSize:   GenSizeAny,
	}
}

func ValidAutoReplyChanceN(n int) bool {
	return n >= MinAutoReplyChanceN && n <= MaxAutoReplyChanceN
}

func ValidMaxStoreTextLen(n int) bool {
	return n >= MinStoreTextLen && n <= MaxStoreTextLen
}

func ValidMinSamples(n int) bool {
	return n >= MinMinSamples && n <= MaxMinSamples
}

// InRange reports whether every field holds a value the settings menu could have produced.
func (s ChatSettings) InRange() bool {
	return ValidAutoReplyChanceN(s.AutoReplyChanceN) &&
		ValidMaxStoreTextLen(s.MaxStoreTextLen) &&
		ValidMinSamples(s.MinSamples) &&
		s.DefaultGenSize.Valid()
}

// EffectiveChanceN clamps a hand-edited chance to something usable as a dice size.
func (s ChatSettings) EffectiveChanceN() int {
	if s.AutoReplyChanceN < MinAutoReplyChanceN {
		return MinAutoReplyChanceN
	}
	return s.AutoReplyChanceN
}
