package meta

import (
	"strings"
	"testing"

	ncerr "github.com/cdfgraph/cdfgraph/meta/errors"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		want     string
		wantCode ncerr.Code
	}{
		{"plain ascii", "temperature", "temperature", ""},
		{"empty", "", "", ncerr.NameInvalid},
		{"embedded nul", "a\x00b", "", ncerr.NameInvalid},
		{"invalid utf8", "a\xff", "", ncerr.NameInvalid},
		{"too long", strings.Repeat("x", NameMaxLen+1), "", ncerr.NameInvalid},
		{"max length ok", strings.Repeat("x", NameMaxLen), strings.Repeat("x", NameMaxLen), ""},
		// NFD "e" + combining acute composes to NFC U+00E9.
		{"canonical composition", "café", "café", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			if tt.wantCode != "" {
				if ncerr.CodeOf(err) != tt.wantCode {
					t.Fatalf("Normalize(%q): got err %v, want code %s", tt.raw, err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q) failed: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q): got %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalize_EquivalentFormsCollide(t *testing.T) {
	f := CreateFile()

	nfc, err := Normalize("café")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.AddDimension(f.Root(), nfc, 4, false); err != nil {
		t.Fatalf("AddDimension(NFC) failed: %v", err)
	}
	_, err = f.AddDimension(f.Root(), "café", 4, false)
	if ncerr.CodeOf(err) != ncerr.NameCollision {
		t.Errorf("NFD spelling of same name: got %v, want NameCollision", err)
	}
}

func TestFindReserved(t *testing.T) {
	r := FindReserved("_NCProperties")
	if r == nil {
		t.Fatal("_NCProperties should be reserved")
	}
	if r.Flags&AttrFlagReadOnly == 0 {
		t.Error("_NCProperties should be read-only")
	}

	if FindReserved("units") != nil {
		t.Error("units must not be reserved")
	}

	hidden := FindReserved("DIMENSION_LIST")
	if hidden == nil || hidden.Flags&AttrFlagHidden == 0 {
		t.Error("DIMENSION_LIST should be hidden")
	}
}

func TestReservedTableSorted(t *testing.T) {
	// FindReserved binary-searches the table; every entry must find itself.
	for _, r := range reservedAttrs {
		if got := FindReserved(r.Name); got == nil || got.Name != r.Name {
			t.Errorf("FindReserved(%q) failed; table not sorted?", r.Name)
		}
	}
}
