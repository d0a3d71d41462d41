// Package page defines the document record shipped to the indexer once per
// successful crawl.
package page

// Record is a single crawled page, ready to be serialized and shipped to the
// indexer. It is created per successful fetch, shipped once, and never
// retained locally afterward.
type Record struct {
	URL              string   `json:"url"`
	Title            string   `json:"title"`
	MetaDescription  string   `json:"meta_description"`
	CanonicalURL     string   `json:"canonical_url"`
	Robots           string   `json:"robots"`
	Lang             string   `json:"lang"`
	H1               string   `json:"h1"`
	OGTitle          string   `json:"og_title"`
	OGDescription    string   `json:"og_description"`
	OGImage          string   `json:"og_image"`
	OGURL            string   `json:"og_url"`
	ContentType      string   `json:"content_type"`
	LastModified     string   `json:"last_modified"`
	Server           string   `json:"server"`
	IsProtected      bool     `json:"is_protected"`
	ProtectionReason string   `json:"protection_reason"`
	CrawlTimestamp   int64    `json:"crawl_timestamp"`
	CleanedText      string   `json:"cleaned_text"`
	Links            []string `json:"links"`
}
