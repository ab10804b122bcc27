package logger

import "strings"

// secretKeyHints are substrings of field names whose values must never be
// logged in full (OAuth tokens, API keys, client secrets).
var secretKeyHints = []string{"token", "secret", "api_key", "apikey", "authorization", "code_verifier"}

// RedactSecret masks a credential for safe logging, keeping a short prefix
// so entries remain correlatable: "patAbCdEf123456" → "patA***".
// Values of 4 characters or fewer are fully masked.
func RedactSecret(val string) string {
	if val == "" {
		return ""
	}
	if len(val) <= 4 {
		return "***"
	}
	return val[:4] + "***"
}

func redactSecretValue(key, val string) string {
	key = strings.ToLower(key)
	for _, hint := range secretKeyHints {
		if strings.Contains(key, hint) {
			return RedactSecret(val)
		}
	}
	return val
}
