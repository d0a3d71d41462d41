package normalize

import "testing"

func TestURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"strips fragment and query", "https://example.com//a//b/?x=1#top", "https://example.com/a/b", true},
		{"collapses duplicate slashes", "https://example.com///a///b", "https://example.com/a/b", true},
		{"bare host gets single slash", "https://example.com", "https://example.com/", true},
		{"rejects relative", "/a/b", "", false},
		{"rejects non-http(s) scheme", "ftp://example.com/a", "", false},
		{"rejects unparseable", "http://[::1", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := URL(tc.in)
			if ok != tc.ok {
				t.Fatalf("URL(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Errorf("URL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestURL_Idempotent(t *testing.T) {
	inputs := []string{
		"https://example.com//a//b/?x=1#top",
		"https://arxiv.org/abs/1234.5678",
		"http://sub.example.org/path//to/thing?x=1&y=2#frag",
	}
	for _, in := range inputs {
		once, ok := URL(in)
		if !ok {
			t.Fatalf("URL(%q) failed to normalize", in)
		}
		twice, ok := URL(once)
		if !ok || twice != once {
			t.Errorf("URL(URL(%q)) = %q, ok=%v; want %q", in, twice, ok, once)
		}
	}
}

func TestDigest(t *testing.T) {
	d := Digest("https://example.com/a/b")
	if len(d) != 40 {
		t.Fatalf("digest length = %d, want 40", len(d))
	}
	if d2 := Digest("https://example.com/a/b"); d2 != d {
		t.Errorf("digest not deterministic: %q != %q", d, d2)
	}
	if d3 := Digest("https://example.com/a/c"); d3 == d {
		t.Errorf("digest collided for distinct inputs")
	}
}

func TestResolveLink(t *testing.T) {
	base := "https://example.com/articles/"
	fetchURL := "https://example.com/articles/index.html"

	cases := []struct {
		name string
		href string
		rel  string
		want string
		ok   bool
	}{
		{"empty", "", "", "", false},
		{"fragment only", "#section", "", "", false},
		{"javascript scheme", "javascript:void(0)", "", "", false},
		{"mailto scheme", "mailto:a@b.com", "", "", false},
		{"tel scheme", "tel:+15555555555", "", "", false},
		{"nofollow rel", "/other", "nofollow", "", false},
		{"sponsored rel", "/other", "external sponsored", "", false},
		{"absolute href", "https://other.com/x", "", "https://other.com/x", true},
		{"relative against base", "page2", "", "https://example.com/articles/page2", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ResolveLink(base, fetchURL, tc.href, tc.rel)
			if ok != tc.ok {
				t.Fatalf("ResolveLink(%q) ok = %v, want %v", tc.href, ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Errorf("ResolveLink(%q) = %q, want %q", tc.href, got, tc.want)
			}
		})
	}
}

func TestResolveLink_NoAuthorityBase(t *testing.T) {
	// base has no authority (e.g. malformed <base href>); fall back to the
	// response's own fetch URL.
	got, ok := ResolveLink("/relative-base", "https://example.com/articles/index.html", "page2", "")
	if !ok {
		t.Fatal("expected resolution to succeed via fetch URL fallback")
	}
	if want := "https://example.com/articles/page2"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
