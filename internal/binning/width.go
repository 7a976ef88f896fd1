package binning

import (
	"fmt"
	"math"
)

// ColumnType identifies the on-disk element encoding of a result column.
type ColumnType uint8

const (
	Int16 ColumnType = iota
	Int32
	Int64
	Float32
	Float64
)

// WidthFor selects the narrowest signed integer type able to represent
// maxIndex, used purely to size output columns compactly. 64-bit is always a
// sufficient fallback.
func WidthFor(maxIndex int) ColumnType {
	switch {
	case maxIndex < math.MaxInt16:
		return Int16
	case maxIndex < math.MaxInt32:
		return Int32
	default:
		return Int64
	}
}

// Size returns the encoded size of one element in bytes.
func (t ColumnType) Size() int {
	switch t {
	case Int16:
		return 2
	case Int32, Float32:
		return 4
	default:
		return 8
	}
}

// ParseColumnType is the inverse of String, used when reading containers.
func ParseColumnType(s string) (ColumnType, error) {
	switch s {
	case "int16":
		return Int16, nil
	case "int32":
		return Int32, nil
	case "int64":
		return Int64, nil
	case "float32":
		return Float32, nil
	case "float64":
		return Float64, nil
	default:
		return 0, fmt.Errorf("unknown column type %q", s)
	}
}

func (t ColumnType) String() string {
	switch t {
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}
