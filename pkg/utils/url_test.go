package utils

import (
	"net/url"
	"testing"
)

func TestIsHTTPURL(t *testing.T) {
	cases := map[string]bool{
		"https://www.jobberman.com/listings/abc-123": true,
		"http://example.com":                         true,
		"ftp://example.com/file":                     false,
		"not-a-url":                                  false,
		"https://":                                   false,
		"":                                           false,
	}
	for in, want := range cases {
		if got := IsHTTPURL(in); got != want {
			t.Errorf("IsHTTPURL(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestToAbsoluteURL(t *testing.T) {
	base, _ := url.Parse("https://www.myjobmag.com/")
	got, err := ToAbsoluteURL(base, "/job/backend-developer-12345")
	if err != nil {
		t.Fatalf("ToAbsoluteURL returned error: %v", err)
	}
	if got != "https://www.myjobmag.com/job/backend-developer-12345" {
		t.Errorf("ToAbsoluteURL = %q", got)
	}
	got, _ = ToAbsoluteURL(base, "https://other.example/x")
	if got != "https://other.example/x" {
		t.Errorf("absolute href rewritten: %q", got)
	}
}

func TestHashKey_Stable(t *testing.T) {
	if HashKey("a") != HashKey("a") || HashKey("a") == HashKey("b") {
		t.Error("HashKey must be deterministic and distinguish inputs")
	}
}
