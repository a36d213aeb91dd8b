// Package safeurl validates and sanitizes provider URLs. Playlist URLs are
// user-supplied and often carry account credentials in the query string, so
// they must be scheme-checked before fetching and redacted before logging.
package safeurl

import "net/url"

// IsHTTPOrHTTPS returns true if u is a valid URL with scheme http or https.
// Used to reject file://, ftp://, and other schemes that could lead to SSRF or local file access.
func IsHTTPOrHTTPS(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	s := parsed.Scheme
	return s == "http" || s == "https"
}

// credentialParams are query keys IPTV panels use for account secrets.
var credentialParams = map[string]bool{
	"username": true,
	"password": true,
	"token":    true,
}

// Redact returns u with userinfo and credential query parameters replaced by
// "xxx", safe for log output. Unparseable input is returned as a fixed
// placeholder rather than echoed back.
func Redact(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return "(invalid url)"
	}
	if parsed.User != nil {
		parsed.User = url.User("xxx")
	}
	q := parsed.Query()
	changed := false
	for key := range q {
		if credentialParams[key] {
			q.Set(key, "xxx")
			changed = true
		}
	}
	if changed {
		parsed.RawQuery = q.Encode()
	}
	return parsed.String()
}
