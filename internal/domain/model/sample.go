package model

import (
	"strings"
	"unicode/utf8"
)

// CommandPrefix marks bot commands; such messages are never stored.
const CommandPrefix = "/"

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// NormalizeSample collapses line breaks to spaces and trims the result,
// producing the single-line form kept in the corpus.
func NormalizeSample(text string) string {
	return strings.TrimSpace(newlineReplacer.Replace(text))
}

// IsStorable decides whether an inbound message may join the corpus under the given settings.
func IsStorable(text string, s ChatSettings) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	if strings.HasPrefix(t, CommandPrefix) {
		return false
	}
	return utf8.RuneCountInString(t) <= s.MaxStoreTextLen
}
