package llm

import "strings"

// SentinelPrefix marks a response string that records a model failure rather
// than an answer. Downstream validation refuses to compare such strings.
const SentinelPrefix = "Error-BDIA:"

// UnsupportedFileMessage is returned verbatim when no transport can carry a
// question's attachment to the model.
const UnsupportedFileMessage = "The LLM model currently does not support these file extensions."

// Sentinel wraps a failure message in the sentinel form.
func Sentinel(msg string) string {
	return SentinelPrefix + " " + strings.TrimSpace(msg)
}

// IsSentinel reports whether s is a model-failure sentinel.
func IsSentinel(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), SentinelPrefix)
}
