package meta

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	ncerr "github.com/cdfgraph/cdfgraph/meta/errors"
)

// NameMaxLen is the maximum length of an object name in bytes, after
// normalization.
const NameMaxLen = 256

// RootGroupName is the name of the root group.
const RootGroupName = "/"

// Normalize applies Unicode canonical normalization (NFC) to a raw name and
// validates it. It rejects empty names, names longer than NameMaxLen, names
// containing NUL bytes, and invalid UTF-8, all with NameInvalid.
func Normalize(raw string) (string, error) {
	if raw == "" {
		return "", ncerr.New(ncerr.NameInvalid, "name is empty")
	}
	if !utf8.ValidString(raw) {
		return "", ncerr.Newf(ncerr.NameInvalid, "name is not valid UTF-8")
	}
	if strings.IndexByte(raw, 0) >= 0 {
		return "", ncerr.Newf(ncerr.NameInvalid, "name contains NUL byte").
			WithObject("", raw)
	}
	name := norm.NFC.String(raw)
	if len(name) > NameMaxLen {
		return "", ncerr.Newf(ncerr.NameInvalid, "name exceeds %d bytes", NameMaxLen)
	}
	return name, nil
}

// Reserved-attribute flags. Reserved names are system attributes the
// backend materializes; the flags gate what the public mutation surface may
// do with them.
const (
	// AttrFlagHidden marks per-variable attributes that are immutable and
	// excluded from enumeration.
	AttrFlagHidden = 1 << iota
	// AttrFlagReadOnly marks global attributes that are readable but
	// immutable.
	AttrFlagReadOnly
	// AttrFlagNameOnly marks attributes readable by name only.
	AttrFlagNameOnly
	// AttrFlagMaterialized marks attributes whose value actually lives in
	// the container.
	AttrFlagMaterialized
)

// ReservedAttr is one entry of the static reserved-attribute table.
type ReservedAttr struct {
	Name  string
	Flags int
}

// reservedAttrs must stay sorted by name: FindReserved binary-searches it.
var reservedAttrs = []ReservedAttr{
	{"CLASS", AttrFlagHidden},
	{"DIMENSION_LIST", AttrFlagHidden},
	{"NAME", AttrFlagHidden},
	{"REFERENCE_LIST", AttrFlagHidden},
	{"_FillValue", AttrFlagMaterialized},
	{"_Format", AttrFlagReadOnly},
	{"_NCProperties", AttrFlagReadOnly | AttrFlagNameOnly | AttrFlagMaterialized},
	{"_Netcdf4Coordinates", AttrFlagHidden | AttrFlagMaterialized},
	{"_Netcdf4Dimid", AttrFlagHidden | AttrFlagMaterialized},
	{"_SOURCE_FORMAT", AttrFlagReadOnly | AttrFlagNameOnly},
}

// FindReserved looks up name in the reserved-attribute table. Returns nil
// if the name is not reserved.
func FindReserved(name string) *ReservedAttr {
	i := sort.Search(len(reservedAttrs), func(i int) bool {
		return reservedAttrs[i].Name >= name
	})
	if i < len(reservedAttrs) && reservedAttrs[i].Name == name {
		return &reservedAttrs[i]
	}
	return nil
}
