package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestTableRender(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, "VARIABLE", "TYPE", "SHAPE")
	table.AddRow("temp", "float", "time, lat")
	table.AddRow("soundings", "profile", "lat")
	table.Render()

	out := buf.String()
	for _, want := range []string{"VARIABLE", "temp", "profile", "time, lat"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected table to contain %q, got:\n%s", want, out)
		}
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Errorf("expected header, separator, and 2 rows, got %d lines", len(lines))
	}
}

func TestTableShortRow(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, "NAME", "LEN")
	table.AddRow("time")
	table.Render()

	if !strings.Contains(buf.String(), "time") {
		t.Errorf("expected padded short row, got:\n%s", buf.String())
	}
}

func TestSuggest(t *testing.T) {
	candidates := []string{"temperature", "pressure", "humidity", "wind_speed"}

	got := Suggest("presure", candidates)
	if len(got) == 0 || got[0] != "pressure" {
		t.Errorf("expected pressure first, got %v", got)
	}

	if got := Suggest("zzzzzzzz", candidates); len(got) != 0 {
		t.Errorf("expected no suggestions, got %v", got)
	}
}

func TestSuggestCaseInsensitive(t *testing.T) {
	got := Suggest("TEMP", []string{"temp", "tmp"})
	if len(got) != 2 {
		t.Errorf("expected both matches, got %v", got)
	}
}

func TestEditDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"", "abc", 3},
		{"same", "same", 0},
	}
	for _, tc := range cases {
		if got := editDistance(tc.a, tc.b); got != tc.want {
			t.Errorf("editDistance(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
