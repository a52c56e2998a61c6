package urlutil

import "testing"

func TestIsHTTPURL(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"https://example.com", true},
		{"http://EXAMPLE.com", true},
		{"ftp://x", false},
		{"", false},
		{"https://", false},
		{"example.com", false},
	}
	for _, c := range cases {
		if got := IsHTTPURL(c.in); got != c.want {
			t.Fatalf("IsHTTPURL(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestIsAbsolute(t *testing.T) {
	if !IsAbsolute("ftp://files.example") {
		t.Fatalf("ftp URL with host is absolute")
	}
	if IsAbsolute("/dashboard") || IsAbsolute("") || IsAbsolute("::nope") {
		t.Fatalf("relative or garbage input must not be absolute")
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://EXAMPLE.com/", "https://example.com"},
		{"http://example.com:80", "http://example.com"},
		{"https://example.com:443/", "https://example.com"},
		{"https://example.com/p/", "https://example.com/p/"},
		{"https://example.com/p#frag", "https://example.com/p"},
		{"http://[::1]:80/x", "http://[::1]/x"},
		{"https://[2001:DB8::1]:443", "https://[2001:db8::1]"},
		{"http://[::1]:8080/x", "http://[::1]:8080/x"},
	}
	for _, c := range cases {
		got, err := Normalize(c.in)
		if err != nil {
			t.Fatalf("Normalize(%q) error: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("Normalize(%q)=%q want %q", c.in, got, c.want)
		}
	}
	if _, err := Normalize("ftp://bad"); err == nil {
		t.Fatalf("expected error for ftp URL")
	}
}

func TestJoinPath(t *testing.T) {
	if got := JoinPath("https://dash.example/", "projects", "abc"); got != "https://dash.example/projects/abc" {
		t.Fatalf("JoinPath got %q", got)
	}
	if got := JoinPath("", "projects"); got != "" {
		t.Fatalf("JoinPath on empty base should be empty, got %q", got)
	}
}
