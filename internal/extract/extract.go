// Package extract parses a fetched HTML document into a page.Record: its
// metadata fields, outbound links, and cleaned visible text.
package extract

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ArunDtej/Re-Search/internal/normalize"
	"github.com/ArunDtej/Re-Search/internal/page"
)

// skipAncestorTags marks elements whose descendant text is never considered
// part of the page's visible, readable content.
var skipAncestorTags = map[string]struct{}{
	"script": {}, "style": {}, "noscript": {}, "iframe": {}, "canvas": {},
	"svg": {}, "meta": {}, "link": {}, "button": {}, "input": {}, "form": {},
	"nav": {}, "footer": {}, "header": {},
}

// textContainerSelector matches elements whose descendant text nodes are
// candidates for the cleaned-text extraction, in document order.
const textContainerSelector = "p, article, section, main, div, span, li"

const cleanedTextLimit = 8000

// Page parses the response body fetched from fetchURL into a page.Record,
// decoding it as UTF-8 with invalid bytes replaced by U+FFFD. headers holds
// the fetch response's lowercased header map; it supplies content_type,
// last_modified, and server when present.
func Page(fetchURL string, body []byte, headers map[string][]string) page.Record {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(strings.ToValidUTF8(string(body), "�")))

	rec := page.Record{
		URL:              fetchURL,
		CrawlTimestamp:   time.Now().Unix(),
		IsProtected:      false,
		ProtectionReason: "public",
	}

	if ct, ok := headers["content-type"]; ok && len(ct) > 0 {
		rec.ContentType = ct[0]
	}
	if lm, ok := headers["last-modified"]; ok && len(lm) > 0 {
		rec.LastModified = lm[0]
	}
	if srv, ok := headers["server"]; ok && len(srv) > 0 {
		rec.Server = srv[0]
	}

	if err != nil || doc == nil {
		rec.Links = []string{}
		return rec
	}

	rec.Title = strings.TrimSpace(doc.Find("title").First().Text())
	rec.MetaDescription = metaContent(doc, "description")
	rec.Robots = metaContent(doc, "robots")
	rec.H1 = strings.TrimSpace(doc.Find("h1").First().Text())
	rec.Lang, _ = doc.Find("html").First().Attr("lang")

	rec.OGTitle = ogProperty(doc, "og:title")
	rec.OGDescription = ogProperty(doc, "og:description")
	rec.OGImage = ogProperty(doc, "og:image")
	rec.OGURL = ogProperty(doc, "og:url")

	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		base := baseHref(doc)
		if resolved, ok := normalize.ResolveLink(base, fetchURL, href, ""); ok {
			rec.CanonicalURL = resolved
		}
	}

	rec.CleanedText = cleanedText(doc)
	rec.Links = extractLinks(doc, fetchURL)

	return rec
}

func metaContent(doc *goquery.Document, name string) string {
	val, _ := doc.Find(`meta[name="` + name + `"]`).First().Attr("content")
	return strings.TrimSpace(val)
}

func ogProperty(doc *goquery.Document, prop string) string {
	val, _ := doc.Find(`meta[property="` + prop + `"]`).First().Attr("content")
	return strings.TrimSpace(val)
}

func baseHref(doc *goquery.Document) string {
	href, _ := doc.Find("base").First().Attr("href")
	return href
}

// hasSkippedAncestor reports whether sel or any of its ancestors is one of
// the chrome/script/style elements whose text is never part of the cleaned
// content.
func hasSkippedAncestor(sel *goquery.Selection) bool {
	found := false
	sel.ParentsFiltered("*").AddSelection(sel).Each(func(_ int, s *goquery.Selection) {
		if _, skip := skipAncestorTags[goquery.NodeName(s)]; skip {
			found = true
		}
	})
	return found
}

func cleanedText(doc *goquery.Document) string {
	var parts []string

	doc.Find(textContainerSelector).Each(func(_ int, sel *goquery.Selection) {
		if hasSkippedAncestor(sel) {
			return
		}
		for _, n := range sel.Nodes {
			collectTextNodes(n, &parts)
		}
	})

	joined := strings.Join(parts, " ")
	joined = strings.Join(strings.Fields(joined), " ")
	if len(joined) > cleanedTextLimit {
		joined = joined[:cleanedTextLimit]
	}
	return joined
}

// collectTextNodes walks every descendant text node of n, including text
// wrapped in inline elements like a/strong/em, keeping the nodes that read
// as prose rather than inline CSS/JS fragments.
func collectTextNodes(n *html.Node, parts *[]string) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			text := strings.TrimSpace(c.Data)
			if text == "" {
				continue
			}
			if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
				continue
			}
			if strings.Contains(text, "var(") || strings.Contains(text, ":") || strings.Contains(text, ";") {
				continue
			}
			*parts = append(*parts, text)
		case html.ElementNode:
			collectTextNodes(c, parts)
		}
	}
}

func extractLinks(doc *goquery.Document, fetchURL string) []string {
	base := baseHref(doc)
	seen := make(map[string]struct{})
	var out []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		rel, _ := sel.Attr("rel")

		resolved, ok := normalize.ResolveLink(base, fetchURL, href, rel)
		if !ok {
			return
		}
		normalized, ok := normalize.URL(resolved)
		if !ok {
			return
		}
		if _, dup := seen[normalized]; dup {
			return
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	})

	if out == nil {
		out = []string{}
	}
	return out
}
