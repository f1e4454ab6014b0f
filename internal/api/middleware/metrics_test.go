package middleware

import "testing"

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/health":             "/health",
		"/metrics":            "/metrics",
		"/rooms":              "/rooms",
		"/rooms/":             "/rooms/",
		"/rooms/A2B3C4":       "/rooms/:code",
		"/rooms/A2B3C4/join":  "/rooms/:code/join",
		"/rooms/A2B3C4/poll":  "/rooms/:code/poll",
		"/rooms/A2B3C4/audio": "/rooms/:code/audio",
	}

	for in, want := range cases {
		if got := NormalizePath(in); got != want {
			t.Errorf("NormalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}
