package sanitize

import "strings"

// delimiters that must not appear in untrusted prompt content.
var dangerousDelimiters = []string{
	"<production-brief>",
	"</production-brief>",
	"<prior-work>",
	"</prior-work>",
	"<candidate>",
	"</candidate>",
	"<feedback>",
	"</feedback>",
	"<submission>",
	"</submission>",
}

// PromptContent sanitizes untrusted content (production briefs, prior model
// output) to prevent prompt injection. It strips any XML-like delimiters
// that the prompt templates use to separate trusted instructions from
// untrusted data.
func PromptContent(content string) string {
	result := content
	for _, delim := range dangerousDelimiters {
		result = strings.ReplaceAll(result, delim, "")
	}
	return result
}
