package effects

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"chirpd/internal/core"
)

const (
	maxContentRunes = 280

	linkPlaceholder = "[link removed]"
)

// Link shapes that get redacted from chirp content. Go's regexp has no
// lookbehind, so the www and bare-domain patterns capture the preceding
// character instead and re-emit it in the replacement; an @ prefix keeps
// handles like @user.example intact.
var (
	schemeLink = regexp.MustCompile(`(?i)https?://\S+`)
	wwwLink    = regexp.MustCompile(`(?i)(^|[^@\w])(www\.\S+)`)
	bareLink   = regexp.MustCompile(`(?i)(^|[^@\w.])([a-z0-9][a-z0-9-]*(\.[a-z0-9-]+)*\.[a-z]{2,}(/\S*)?)`)
)

func redactLinks(content string) string {
	content = schemeLink.ReplaceAllString(content, linkPlaceholder)
	content = wwwLink.ReplaceAllString(content, "${1}"+linkPlaceholder)
	content = bareLink.ReplaceAllString(content, "${1}"+linkPlaceholder)
	return content
}

// sanitizeContent normalizes user-submitted chirp text: trim, reject empty,
// enforce the length cap counted in code points, then redact links. The cap
// applies to what the user typed, not the shorter redacted form.
func sanitizeContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", core.Invalid("content must not be empty")
	}

	if n := utf8.RuneCountInString(content); n > maxContentRunes {
		return "", core.Invalid(fmt.Sprintf("content is %d characters, the maximum is %d", n, maxContentRunes))
	}

	return redactLinks(content), nil
}
