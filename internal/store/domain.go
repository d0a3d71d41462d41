package store

import "net/url"

// DomainOf extracts the host component backlink scoring treats as a link's
// "domain". It returns false when the URL has no parseable host, in which
// case the domain-score step is skipped for that link.
func DomainOf(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "", false
	}
	return u.Hostname(), true
}
