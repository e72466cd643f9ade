package util

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Science Fiction", "science-fiction"},
		{"science_fiction", "science-fiction"},
		{"SCIENCE-FICTION", "science-fiction"},
		{"  multi   word ", "multi-word"},
		{"🐉 Dragons!", "dragons"},
		{"--leading--", "leading"},
		{"History/Ancient", "history-ancient"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		if got := Slugify(tt.input); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSlugify_Idempotent(t *testing.T) {
	for _, input := range []string{"Science Fiction", "a--b", "  x  "} {
		once := Slugify(input)
		if twice := Slugify(once); twice != once {
			t.Errorf("Slugify not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}
