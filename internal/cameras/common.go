package cameras

import (
	"net/url"
	"regexp"
	"strings"
)

var rtspCredsRegex = regexp.MustCompile(`(?i)^(rtsp|rtsps)://([^@]+)@`)

// SanitizeRTSPURL strips embedded credentials and sensitive query parameters
// from an RTSP URL, for safe logging and diagnostics display.
func SanitizeRTSPURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return rtspCredsRegex.ReplaceAllString(raw, "$1://")
	}
	u.User = nil
	q := u.Query()
	for k := range q {
		kl := strings.ToLower(k)
		if strings.Contains(kl, "token") || strings.Contains(kl, "pass") || strings.Contains(kl, "auth") || strings.Contains(kl, "secret") {
			q.Del(k)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
