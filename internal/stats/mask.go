package stats

import (
	"net/url"
	"strings"
)

const (
	maskKeep        = 6
	maskPlaceholder = "••••••••"
)

// MaskWebhookURL hides the secret part of a webhook URL: only the first few
// characters of the last path segment survive. Unparsable input is returned
// as is.
func MaskWebhookURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	parts := strings.Split(path, "/")
	if len(parts) >= 2 {
		last := parts[len(parts)-1]
		if len(last) > maskKeep {
			last = last[:maskKeep]
		}
		parts[len(parts)-1] = last + maskPlaceholder
	}

	return u.Scheme + "://" + u.Host + strings.Join(parts, "/")
}
