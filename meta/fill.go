package meta

// Default fill values for the atomic types, as the format defines them.
const (
	FillByte   = int8(-127)
	FillChar   = byte(0)
	FillShort  = int16(-32767)
	FillInt    = int32(-2147483647)
	FillFloat  = float32(9.9692099683868690e+36)
	FillDouble = float64(9.9692099683868690e+36)
	FillUByte  = uint8(255)
	FillUShort = uint16(65535)
	FillUInt   = uint32(4294967295)
	FillInt64  = int64(-9223372036854775806)
	FillUInt64 = uint64(18446744073709551614)
	FillString = ""
)

// DefaultFillValue returns the default fill value for an atomic type id.
// User-defined types have no default; variables of such types fill with
// zero bytes unless a _FillValue attribute overrides it.
func DefaultFillValue(typeID int) (interface{}, bool) {
	switch typeID {
	case TypeByte:
		return FillByte, true
	case TypeChar:
		return FillChar, true
	case TypeShort:
		return FillShort, true
	case TypeInt:
		return FillInt, true
	case TypeFloat:
		return FillFloat, true
	case TypeDouble:
		return FillDouble, true
	case TypeUByte:
		return FillUByte, true
	case TypeUShort:
		return FillUShort, true
	case TypeUInt:
		return FillUInt, true
	case TypeInt64:
		return FillInt64, true
	case TypeUInt64:
		return FillUInt64, true
	case TypeString:
		return FillString, true
	default:
		return nil, false
	}
}
