package finalizer

import "strings"

var assistantOpeners = []string{
	"i'll", "let me", "here's", "i can", "i've", "i'm going to", "i will",
	"sure", "certainly", "of course",
}

var userImperatives = []string{
	"create", "fix", "add", "update", "show", "make", "build", "implement",
	"write", "delete", "remove", "change", "modify", "help", "can you",
	"please", "i want", "i need",
}

// inferRole decides "user" vs "assistant" for text with no reliable role
// metadata, per the marker rules a harness transcript tends to follow.
func inferRole(text string) string {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	if hasAssistantMarkers(trimmed, lower) {
		return "assistant"
	}

	if hasUserMarkers(trimmed, lower) {
		return "user"
	}

	if len(trimmed) > 500 {
		return "assistant"
	}
	return "user"
}

func hasAssistantMarkers(trimmed, lower string) bool {
	for _, opener := range assistantOpeners {
		if strings.HasPrefix(lower, opener) {
			return true
		}
	}

	if strings.Contains(trimmed, "```") {
		return true
	}

	if open := strings.Index(trimmed, "**"); open != -1 && strings.Contains(trimmed[open+2:], "**") {
		return true
	}

	if (strings.HasPrefix(lower, "yes,") || strings.HasPrefix(lower, "no,")) && startsWithPronounAfterComma(trimmed) {
		return true
	}

	if startsWithNumberedBoldItem(trimmed) {
		return true
	}

	return false
}

func startsWithPronounAfterComma(trimmed string) bool {
	idx := strings.IndexByte(trimmed, ',')
	if idx == -1 {
		return false
	}
	rest := strings.TrimSpace(trimmed[idx+1:])
	lowerRest := strings.ToLower(rest)
	for _, pronoun := range []string{"i", "it", "that", "you", "we", "this"} {
		if strings.HasPrefix(lowerRest, pronoun) {
			return true
		}
	}
	return false
}

func startsWithNumberedBoldItem(trimmed string) bool {
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i == 0 {
		return false
	}
	rest := trimmed[i:]
	rest = strings.TrimPrefix(rest, ".")
	rest = strings.TrimPrefix(rest, ")")
	rest = strings.TrimSpace(rest)
	return strings.HasPrefix(rest, "**")
}

func hasUserMarkers(trimmed, lower string) bool {
	if strings.HasSuffix(trimmed, "?") {
		return true
	}

	for _, imperative := range userImperatives {
		if strings.HasPrefix(lower, imperative) {
			return true
		}
	}

	if strings.HasPrefix(trimmed, "@") {
		return true
	}

	return false
}
