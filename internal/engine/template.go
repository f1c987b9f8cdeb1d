package engine

import (
	"regexp"
	"time"

	"github.com/moyam/chatbot/internal/domain"
)

var varPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Render interpolates ${name} references in a message template against
// the variable bag. Unresolved references render as the empty string: a
// blank field is recoverable, a failed render is not.
func Render(template string, vars map[string]domain.Value) string {
	if template == "" {
		return ""
	}
	return varPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[2 : len(match)-1]
		if v, ok := vars[name]; ok && v.Kind != domain.KindAbsent {
			return v.String()
		}
		if sys, ok := systemVar(name); ok {
			return sys
		}
		return ""
	})
}

// systemVar resolves built-in date/time variables that templates may
// reference without a prior write.
func systemVar(name string) (string, bool) {
	now := time.Now()
	switch name {
	case "today":
		return now.Format("2006-01-02"), true
	case "now":
		return now.Format("15:04"), true
	case "dayOfWeek":
		return now.Weekday().String(), true
	default:
		return "", false
	}
}
