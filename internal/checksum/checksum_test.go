package checksum

import "testing"

func TestNote(t *testing.T) {
	base := Note("a", "Title", "\nbody")
	if base != Note("a", "Title", "\nbody") {
		t.Fatal("digest is not stable")
	}

	tests := map[string][3]string{
		"other id":        {"b", "Title", "\nbody"},
		"other title":     {"a", "Titles", "\nbody"},
		"other content":   {"a", "Title", "\nbody!"},
		"id shifted":      {"aT", "itle", "\nbody"},
		"content shifted": {"a", "Title\n", "body"},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if Note(in[0], in[1], in[2]) == base {
				t.Errorf("Note(%q, %q, %q) collides with base", in[0], in[1], in[2])
			}
		})
	}
}
