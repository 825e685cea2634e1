package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"AC/DC", "AC-DC"},
		{"What?", "What"},
		{"  Track: One  ", "Track- One"},
		{"a<b>c|d", "abcd"},
		{"trailing...", "trailing"},
		{"", ""},
		{"étude", "étude"}, // decomposed é normalizes to composed form
	}
	for _, tc := range cases {
		if got := SanitizeFileName(tc.in); got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Qobuz", "qobuz"},
		{"Sound Cloud!", "sound_cloud"},
		{"___", "unknown"},
		{"", "unknown"},
		{"a-b_c9", "a-b_c9"},
	}
	for _, tc := range cases {
		if got := SanitizeToken(tc.in); got != tc.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
