package logging

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RedactedPlaceholder replaces sensitive values in log output.
const RedactedPlaceholder = "[REDACTED]"

var sensitivePatterns = []*regexp.Regexp{
	// key=value / key: value assignments
	regexp.MustCompile(`(?i)((?:password|passwd|secret|token|ref_check)\s*[:=]\s*)[^\s,;&"']+`),
	// argon2id PHC hashes
	regexp.MustCompile(`\$argon2id\$[^\s"']+`),
	// ref_check tokens: "<unix ts>:<base64 HMAC-SHA256>"
	regexp.MustCompile(`\b\d{9,12}:[A-Za-z0-9+/]{43}=`),
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/-]{8,}=*`),
}

// Field keys containing one of these are always redacted.
var sensitiveKeyParts = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"ref_check",
	"cookie",
	"authorization",
}

// Field keys that must match exactly. "session" carries a full session id;
// "session_id" is logged as a short prefix and stays readable.
var sensitiveExactKeys = map[string]bool{
	"session": true,
}

// RedactSensitiveData redacts secrets embedded in a free-form string.
func RedactSensitiveData(value string) string {
	if value == "" {
		return value
	}
	result := sensitivePatterns[0].ReplaceAllString(value, "${1}"+RedactedPlaceholder)
	for _, pattern := range sensitivePatterns[1:] {
		result = pattern.ReplaceAllString(result, RedactedPlaceholder)
	}
	return result
}

// IsSensitiveField reports whether a field name marks its value as secret.
func IsSensitiveField(fieldName string) bool {
	lower := strings.ToLower(fieldName)
	if sensitiveExactKeys[lower] {
		return true
	}
	for _, part := range sensitiveKeyParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}

// ContainsSensitiveData reports whether value matches any secret pattern.
func ContainsSensitiveData(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// RedactFields returns fields with sensitive keys replaced and string values
// scrubbed. The input slice is not modified.
func RedactFields(fields []zapcore.Field) []zapcore.Field {
	if len(fields) == 0 {
		return fields
	}
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		switch {
		case IsSensitiveField(f.Key):
			out[i] = zap.String(f.Key, RedactedPlaceholder)
		case f.Type == zapcore.StringType:
			out[i] = f
			out[i].String = RedactSensitiveData(f.String)
		default:
			out[i] = f
		}
	}
	return out
}

// redactingCore filters fields and messages before they reach the wrapped core.
type redactingCore struct {
	zapcore.Core
}

// NewRedactingCore wraps core so every entry is passed through RedactFields.
func NewRedactingCore(core zapcore.Core) zapcore.Core {
	return &redactingCore{Core: core}
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{Core: c.Core.With(RedactFields(fields))}
}

func (c *redactingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *redactingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	ent.Message = RedactSensitiveData(ent.Message)
	return c.Core.Write(ent, RedactFields(fields))
}
