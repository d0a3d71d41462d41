// Package bypass inspects fetch responses for known bot-protection challenge
// signatures. It never mutates a page record; detections are reported to
// metrics and logs only, as an observability signal alongside the crawl.
package bypass

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/ArunDtej/Re-Search/internal/metrics"
)

// Detector examines a response for one bot-protection mechanism.
type Detector func(status int, headers map[string][]string, body []byte) (detected bool, source string)

// DefaultDetectors returns the standard list of bot protection detectors.
func DefaultDetectors() []Detector {
	return []Detector{
		detectCloudflare,
		detectAkamai,
		detectDataDome,
		detectPerimeterX,
	}
}

// Analyze runs the response through the default detectors and records the
// outcome in metrics. It returns the first detection, if any.
func Analyze(status int, headers map[string][]string, body []byte) (bool, string) {
	for _, d := range DefaultDetectors() {
		if detected, source := d(status, headers, body); detected {
			metrics.ProtectionSignalsTotal.WithLabelValues(source).Inc()
			return true, source
		}
	}
	return false, ""
}

func getHeader(headers map[string][]string, key string) string {
	lowerKey := strings.ToLower(key)
	if vals, ok := headers[lowerKey]; ok && len(vals) > 0 {
		return vals[0]
	}
	for k, vals := range headers {
		if strings.ToLower(k) == lowerKey && len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

func detectCloudflare(status int, headers map[string][]string, body []byte) (bool, string) {
	if status == http.StatusForbidden || status == http.StatusServiceUnavailable {
		server := strings.ToLower(getHeader(headers, "Server"))
		if strings.Contains(server, "cloudflare") {
			return true, "cloudflare"
		}
		if bytes.Contains(body, []byte("cf-browser-verification")) ||
			bytes.Contains(body, []byte("cloudflare-nginx")) ||
			bytes.Contains(body, []byte("cf-turnstile")) ||
			bytes.Contains(body, []byte("Attention Required! | Cloudflare")) {
			return true, "cloudflare"
		}
	}
	return false, ""
}

func detectAkamai(status int, headers map[string][]string, body []byte) (bool, string) {
	if status == http.StatusForbidden {
		server := strings.ToLower(getHeader(headers, "Server"))
		if strings.Contains(server, "akamai") {
			return true, "akamai"
		}
		if bytes.Contains(body, []byte("Reference #")) && bytes.Contains(body, []byte("Access Denied")) {
			return true, "akamai"
		}
	}
	return false, ""
}

func detectDataDome(status int, headers map[string][]string, body []byte) (bool, string) {
	if status == http.StatusForbidden {
		server := strings.ToLower(getHeader(headers, "Server"))
		if strings.Contains(server, "datadome") {
			return true, "datadome"
		}
		if getHeader(headers, "X-DataDome") != "" || getHeader(headers, "X-DataDome-Response") != "" {
			return true, "datadome"
		}
		if bytes.Contains(body, []byte("geo.captcha-delivery.com")) || bytes.Contains(body, []byte("datadome")) {
			return true, "datadome"
		}
	}
	return false, ""
}

func detectPerimeterX(status int, headers map[string][]string, body []byte) (bool, string) {
	if status == http.StatusForbidden {
		if getHeader(headers, "X-Px-Captcha") != "" {
			return true, "perimeterx"
		}
		if bytes.Contains(body, []byte("client.perimeterx.net")) ||
			bytes.Contains(body, []byte("px-captcha")) ||
			bytes.Contains(body, []byte("_pxBlock")) {
			return true, "perimeterx"
		}
	}
	return false, ""
}
