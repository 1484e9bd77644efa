package application

// Translator is the slice of i18n the facade needs to render replies.
type Translator interface {
	T(key string, args ...interface{}) string
}
