package indexer

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ArunDtej/Re-Search/internal/page"
)

func TestShip_NDJSON(t *testing.T) {
	var gotContentType string
	var gotBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c, err := New(Config{Endpoint: ts.URL}, nil)
	if err != nil {
		t.Fatal(err)
	}

	records := []page.Record{
		{URL: "https://example.com/a", Title: "A", CrawlTimestamp: 1700000000, Links: []string{"https://example.com/b"}},
		{URL: "https://example.com/b", Title: "B", Links: []string{}},
	}
	if err := c.Ship(context.Background(), records); err != nil {
		t.Fatalf("ship: %v", err)
	}

	if gotContentType != "application/x-ndjson" {
		t.Errorf("content type = %q, want application/x-ndjson", gotContentType)
	}

	scanner := bufio.NewScanner(strings.NewReader(string(gotBody)))
	var lines []map[string]any
	for scanner.Scan() {
		var obj map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &obj); err != nil {
			t.Fatalf("line is not valid JSON: %v\n%s", err, scanner.Text())
		}
		lines = append(lines, obj)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d NDJSON lines, want 2", len(lines))
	}
	if lines[0]["url"] != "https://example.com/a" || lines[1]["url"] != "https://example.com/b" {
		t.Errorf("unexpected urls: %v, %v", lines[0]["url"], lines[1]["url"])
	}

	// Field names on the wire must match the record contract exactly.
	for _, field := range []string{
		"url", "title", "meta_description", "canonical_url", "robots", "lang",
		"h1", "og_title", "og_description", "og_image", "og_url", "content_type",
		"last_modified", "server", "is_protected", "protection_reason",
		"crawl_timestamp", "cleaned_text", "links",
	} {
		if _, ok := lines[0][field]; !ok {
			t.Errorf("missing field %q in serialized record", field)
		}
	}
}

func TestShip_EmptyBatch(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer ts.Close()

	c, err := New(Config{Endpoint: ts.URL}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Ship(context.Background(), nil); err != nil {
		t.Fatalf("ship of empty batch: %v", err)
	}
	if called {
		t.Error("empty batch must not POST")
	}
}

func TestShip_Non2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "full", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c, err := New(Config{Endpoint: ts.URL}, nil)
	if err != nil {
		t.Fatal(err)
	}
	err = c.Ship(context.Background(), []page.Record{{URL: "https://example.com"}})
	if err == nil {
		t.Fatal("expected an error for a non-2xx response")
	}
}

func TestShip_Unreachable(t *testing.T) {
	c, err := New(Config{Endpoint: "http://127.0.0.1:1/ingest"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Ship(context.Background(), []page.Record{{URL: "https://example.com"}}); err == nil {
		t.Fatal("expected a transport error")
	}
}
