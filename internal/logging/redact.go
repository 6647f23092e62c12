package logging

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// RedactionService masks credentials before log entries are written.
//
// PR metadata and patch text can be logged at debug level, and both may
// carry tokens pasted by contributors.
type RedactionService struct {
	githubTokenPatterns []*regexp.Regexp
	authPattern         *regexp.Regexp
	urlPasswordPattern  *regexp.Regexp
	urlParamPattern     *regexp.Regexp
	envPattern          *regexp.Regexp
	sensitiveFields     []string
}

// NewRedactionService creates a redaction service with the default patterns.
func NewRedactionService() *RedactionService {
	return &RedactionService{
		githubTokenPatterns: []*regexp.Regexp{
			regexp.MustCompile(`ghp_[a-zA-Z0-9]{4,}`),
			regexp.MustCompile(`ghs_[a-zA-Z0-9]{4,}`),
			regexp.MustCompile(`github_pat_[a-zA-Z0-9_]{4,}`),
			regexp.MustCompile(`ghr_[a-zA-Z0-9]{4,}`),
		},
		authPattern:        regexp.MustCompile(`(Bearer|Token)\s+([^\s'"]+)`),
		urlPasswordPattern: regexp.MustCompile(`://([^:/\s]+):([^@\s]+)@`),
		urlParamPattern:    regexp.MustCompile(`(password|token|secret|api_key)=([^\s&]+)`),
		envPattern:         regexp.MustCompile(`([A-Z_]*(?:TOKEN|SECRET|PASSWORD)[A-Z_]*=)([^\s]+)`),
		sensitiveFields: []string{
			"password", "token", "secret", "api_key", "private_key",
			"authorization", "credential", "access_token",
		},
	}
}

// RedactSensitive replaces credentials in text with placeholders,
// keeping token prefixes and parameter names for debugging.
func (r *RedactionService) RedactSensitive(text string) string {
	for _, pattern := range r.githubTokenPatterns {
		text = pattern.ReplaceAllStringFunc(text, func(match string) string {
			for _, prefix := range []string{"github_pat_", "ghp_", "ghs_", "ghr_"} {
				if strings.HasPrefix(match, prefix) {
					return prefix + "***REDACTED***"
				}
			}
			return "***REDACTED***"
		})
	}

	text = r.authPattern.ReplaceAllString(text, "$1 ***REDACTED***")
	text = r.urlPasswordPattern.ReplaceAllString(text, "://$1:***REDACTED***@")
	text = r.urlParamPattern.ReplaceAllString(text, "$1=***REDACTED***")
	text = r.envPattern.ReplaceAllString(text, "$1***REDACTED***")

	return text
}

// IsSensitiveField reports whether a field name suggests secret content.
func (r *RedactionService) IsSensitiveField(fieldName string) bool {
	fieldLower := strings.ToLower(fieldName)
	for _, sensitive := range r.sensitiveFields {
		if strings.Contains(fieldLower, sensitive) {
			return true
		}
	}
	return false
}

// CreateHook creates a logrus hook that redacts messages and string fields.
func (r *RedactionService) CreateHook() logrus.Hook {
	return &RedactionHook{service: r}
}

// RedactionHook applies a RedactionService to every log entry.
type RedactionHook struct {
	service *RedactionService
}

// Levels returns all levels.
func (h *RedactionHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire redacts the entry in place.
func (h *RedactionHook) Fire(entry *logrus.Entry) error {
	entry.Message = h.service.RedactSensitive(entry.Message)

	for key, value := range entry.Data {
		if h.service.IsSensitiveField(key) {
			entry.Data[key] = "***REDACTED***"
			continue
		}
		if s, ok := value.(string); ok {
			entry.Data[key] = h.service.RedactSensitive(s)
		}
	}

	return nil
}
