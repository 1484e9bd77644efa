package model

import "strings"

// GenSize constrains the token count of a generated fragment.
// The integer codes are part of the persisted settings format.
type GenSize int

const (
	GenSizeAny GenSize = iota
	GenSizeSmall
	GenSizeMedium
	GenSizeLarge
)

// AllGenSizes lists the sizes in menu order.
var AllGenSizes = []GenSize{GenSizeAny, GenSizeSmall, GenSizeMedium, GenSizeLarge}

func (g GenSize) Valid() bool {
	return g >= GenSizeAny && g <= GenSizeLarge
}

// Accepts reports whether a fragment of n tokens satisfies the size class.
func (g GenSize) Accepts(n int) bool {
	switch g {
	case GenSizeAny:
		return n <= 100
	case GenSizeSmall:
		return n >= 2 && n <= 3
	case GenSizeMedium:
		return n >= 4 && n <= 7
	case GenSizeLarge:
		return n >= 8 && n <= 100
	}
	return false
}

func (g GenSize) String() string {
	switch g {
	case GenSizeSmall:
		return "small"
	case GenSizeMedium:
		return "medium"
	case GenSizeLarge:
		return "large"
	}
	return "any"
}

var genSizeAliases = map[string]GenSize{
	"0": GenSizeAny, "any": GenSizeAny, "любое": GenSizeAny, "любой": GenSizeAny,
	"1": GenSizeSmall, "small": GenSizeSmall, "s": GenSizeSmall, "мал": GenSizeSmall, "корот": GenSizeSmall, "короткое": GenSizeSmall,
	"2": GenSizeMedium, "medium": GenSizeMedium, "m": GenSizeMedium, "сред": GenSizeMedium, "среднее": GenSizeMedium,
	"3": GenSizeLarge, "large": GenSizeLarge, "l": GenSizeLarge, "длин": GenSizeLarge, "длинное": GenSizeLarge,
}

// ParseGenSize maps a user-typed size name to a size class. Anything unknown is GenSizeAny.
func ParseGenSize(arg string) GenSize {
	if g, ok := genSizeAliases[strings.ToLower(strings.TrimSpace(arg))]; ok {
		return g
	}
	return GenSizeAny
}
