package fetcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dkoval/sitesearch/internal/fetcher"
)

func TestFetchExtractsSiteRelativeLinks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Home</title></head><body>
			<a href="/about">About</a>
			<a href="/about">Duplicate</a>
			<a href="https://external.example.com/page">External</a>
			<a href="//cdn.example.com/asset">Protocol relative</a>
			<a href="contact">Relative without slash</a>
			Hello world
		</body></html>`))
	}))
	defer server.Close()

	f := fetcher.New("test-agent", "")
	res, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if res.HTTPCode != 200 {
		t.Errorf("HTTPCode = %d, want 200", res.HTTPCode)
	}
	if len(res.Links) != 1 || res.Links[0] != "/about" {
		t.Errorf("Links = %v, want [/about]", res.Links)
	}
}

func TestFetchWrapsTransportErrors(t *testing.T) {
	f := fetcher.New("test-agent", "")
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:0")
	if err == nil {
		t.Fatal("Fetch to an unreachable address expected an error")
	}
}

func TestExtractTextStripsScriptsAndTags(t *testing.T) {
	html := `<html><body><script>ignored();</script><p>Hello <b>world</b></p></body></html>`
	got := fetcher.ExtractText(html)
	want := "Hello world"
	if got != want {
		t.Errorf("ExtractText = %q, want %q", got, want)
	}
}

func TestExtractTitle(t *testing.T) {
	html := `<html><head><title>  My Page  </title></head><body></body></html>`
	got := fetcher.ExtractTitle(html)
	want := "My Page"
	if got != want {
		t.Errorf("ExtractTitle = %q, want %q", got, want)
	}
}
