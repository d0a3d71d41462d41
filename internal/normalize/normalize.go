// Package normalize canonicalizes crawl URLs and computes their
// content-addressable digest, and resolves anchor hrefs found during HTML
// extraction into absolute, followable links.
package normalize

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"strings"
)

// URL parses raw as an absolute URL and returns its canonical form: no
// fragment, no query, path segments collapsed to a single leading slash with
// no empty segments. It returns false if raw does not parse as an absolute
// URL.
func URL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.RawQuery = ""

	segments := strings.Split(u.Path, "/")
	kept := segments[:0]
	for _, s := range segments {
		if s != "" {
			kept = append(kept, s)
		}
	}
	u.Path = "/" + strings.Join(kept, "/")
	u.RawPath = ""

	return u.String(), true
}

// Digest returns the hex-encoded SHA-1 digest of the given normalized URL
// string.
func Digest(normalized string) string {
	sum := sha1.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// blockedRel holds the rel values that mark an anchor as non-followable.
var blockedRel = map[string]struct{}{
	"nofollow":   {},
	"noopener":   {},
	"noreferrer": {},
	"ugc":        {},
	"sponsored":  {},
}

// ResolveLink applies the crawler's link-resolution policy to an anchor's
// href found on a page fetched from fetchURL, whose declared <base> (if any)
// is base. It returns false if the href should not be followed.
func ResolveLink(base, fetchURL, href, rel string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
		return "", false
	}

	for _, r := range strings.Fields(strings.ToLower(rel)) {
		if _, blocked := blockedRel[r]; blocked {
			return "", false
		}
	}

	if u, err := url.Parse(href); err == nil && u.IsAbs() {
		return u.String(), true
	}

	if baseURL, err := url.Parse(base); err == nil && baseURL.IsAbs() && baseURL.Host != "" {
		if resolved, err := baseURL.Parse(href); err == nil {
			return resolved.String(), true
		}
	}

	if fetchedURL, err := url.Parse(fetchURL); err == nil && fetchedURL.IsAbs() {
		if resolved, err := fetchedURL.Parse(href); err == nil {
			return resolved.String(), true
		}
	}

	return "", false
}
