package auth

import (
	"net/url"
	"strings"
)

// SafeRedirect returns the URL a sign-in flow may send the browser to.
//
// Absolute http(s) targets are honoured in production only when their host
// matches baseURL; otherwise baseURL is returned. Outside production any
// absolute target is allowed. Relative targets pointing back into the sign-in
// endpoints resolve to baseURL (no redirect loops); other relative targets are
// joined onto baseURL.
func SafeRedirect(target, baseURL string, production bool) string {
	base := strings.TrimRight(baseURL, "/")
	if target == "" {
		return base
	}

	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		if !production {
			return target
		}
		t, err := url.Parse(target)
		if err != nil {
			return base
		}
		b, err := url.Parse(base)
		if err != nil {
			return base
		}
		if t.Hostname() != "" && t.Hostname() == b.Hostname() {
			return target
		}
		return base
	}

	// Protocol-relative ("//evil.example") is absolute in a browser.
	if strings.HasPrefix(target, "//") {
		return base
	}

	if strings.HasPrefix(target, "/api/auth/signin") || strings.HasPrefix(target, "/api/auth/callback") {
		return base
	}

	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	return base + target
}
