package routes

import "testing"

func TestTitleFromFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"chapter1.pdf", "chapter1"},
		{"Chapter1.PDF", "Chapter1"},
		{"sound.Pdf", "sound"},
		{"notes.txt", "notes.txt"},
		{"archive.pdf.pdf", "archive.pdf"},
		{"noextension", "noextension"},
	}
	for _, c := range cases {
		if got := titleFromFilename(c.in); got != c.want {
			t.Errorf("titleFromFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
