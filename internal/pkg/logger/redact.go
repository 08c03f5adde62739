package logger

import (
	"regexp"
	"strings"
)

// secretKeyFragments mark log field names whose values are credentials.
var secretKeyFragments = []string{"token", "secret", "password", "api_key", "apikey"}

// accessTokenRegex matches access_token values embedded in URLs or
// form-encoded bodies that end up in generic fields.
var accessTokenRegex = regexp.MustCompile(`(access_token=)[^&\s"]+`)

// redactValue masks credential values before they are written to a log
// entry. Fields whose key names a credential are fully masked; other
// fields have embedded access_token parameters masked in place.
func redactValue(key, val string) string {
	lower := strings.ToLower(key)
	for _, frag := range secretKeyFragments {
		if strings.Contains(lower, frag) {
			return RedactToken(val)
		}
	}
	return accessTokenRegex.ReplaceAllString(val, "${1}***")
}

// RedactToken masks a credential for safe logging, keeping a short prefix
// so operators can tell tokens apart. "EAABsbCS1iHgBA..." → "EAAB***"
func RedactToken(token string) string {
	if len(token) <= 4 {
		return "***"
	}
	return token[:4] + "***"
}
