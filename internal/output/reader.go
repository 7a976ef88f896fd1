package output

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/corrkit/corrkit/internal/binning"
	"github.com/corrkit/corrkit/internal/preprocess"
)

// Read parses a .ckt container back into a ResultSet, verifying the magic,
// version, and checksum. Float32-typed columns come back rounded to float32
// precision; that loss is part of the format.
func Read(path string) (*preprocess.ResultSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading container %s: %w", path, err)
	}
	if len(data) < headerSize+footerSize {
		return nil, fmt.Errorf("container %s truncated: %d bytes", path, len(data))
	}

	footer := data[len(data)-footerSize:]
	if binary.LittleEndian.Uint32(footer[4:8]) != MagicBytes {
		return nil, fmt.Errorf("container %s has bad footer magic", path)
	}
	wantCRC := binary.LittleEndian.Uint32(footer[0:4])
	if got := crc32.ChecksumIEEE(data[:len(data)-footerSize]); got != wantCRC {
		return nil, fmt.Errorf("container %s checksum mismatch: %08x != %08x", path, got, wantCRC)
	}

	if binary.LittleEndian.Uint32(data[0:4]) != MagicBytes {
		return nil, fmt.Errorf("container %s has bad magic", path)
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != FormatVersion {
		return nil, fmt.Errorf("container %s has unsupported version %d", path, v)
	}
	count := int(binary.LittleEndian.Uint32(data[8:12]))

	body := data[headerSize : len(data)-footerSize]
	rs := &preprocess.ResultSet{}
	for a := 0; a < count; a++ {
		if len(body) < 12 {
			return nil, fmt.Errorf("container %s truncated in artifact %d", path, a)
		}
		metaLen := int(binary.LittleEndian.Uint32(body[0:4]))
		payloadLen := int(binary.LittleEndian.Uint64(body[4:12]))
		body = body[12:]
		if len(body) < metaLen+payloadLen {
			return nil, fmt.Errorf("container %s truncated in artifact %d", path, a)
		}
		var meta artifactMeta
		if err := json.Unmarshal(body[:metaLen], &meta); err != nil {
			return nil, fmt.Errorf("parsing metadata of artifact %d: %w", a, err)
		}
		payload := body[metaLen : metaLen+payloadLen]
		body = body[metaLen+payloadLen:]

		art := preprocess.Artifact{
			Name:       meta.Name,
			Comments:   meta.Comments,
			Provenance: meta.Provenance,
		}
		switch meta.Kind {
		case "table":
			table := &preprocess.Table{}
			for _, cm := range meta.Columns {
				typ, err := binning.ParseColumnType(cm.Type)
				if err != nil {
					return nil, fmt.Errorf("artifact %s column %s: %w", meta.Name, cm.Name, err)
				}
				width := typ.Size() * cm.Length
				if len(payload) < width {
					return nil, fmt.Errorf("artifact %s column %s truncated", meta.Name, cm.Name)
				}
				table.Columns = append(table.Columns, decodeColumn(cm.Name, typ, cm.Length, payload[:width]))
				payload = payload[width:]
			}
			art.Table = table
		case "matrix":
			if len(payload) != meta.Rows*meta.Cols*8 {
				return nil, fmt.Errorf("artifact %s matrix payload is %d bytes, want %d",
					meta.Name, len(payload), meta.Rows*meta.Cols*8)
			}
			values := make([]float64, meta.Rows*meta.Cols)
			for i := range values {
				values[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[i*8:]))
			}
			art.Matrix = mat.NewDense(meta.Rows, meta.Cols, values)
		default:
			return nil, fmt.Errorf("artifact %s has unknown kind %q", meta.Name, meta.Kind)
		}
		rs.Artifacts = append(rs.Artifacts, art)
	}
	return rs, nil
}

func decodeColumn(name string, typ binning.ColumnType, length int, payload []byte) preprocess.Column {
	col := preprocess.Column{Name: name, Type: typ}
	switch typ {
	case binning.Int16:
		col.Ints = make([]int64, length)
		for i := range col.Ints {
			col.Ints[i] = int64(int16(binary.LittleEndian.Uint16(payload[i*2:])))
		}
	case binning.Int32:
		col.Ints = make([]int64, length)
		for i := range col.Ints {
			col.Ints[i] = int64(int32(binary.LittleEndian.Uint32(payload[i*4:])))
		}
	case binning.Int64:
		col.Ints = make([]int64, length)
		for i := range col.Ints {
			col.Ints[i] = int64(binary.LittleEndian.Uint64(payload[i*8:]))
		}
	case binning.Float32:
		col.Floats = make([]float64, length)
		for i := range col.Floats {
			col.Floats[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(payload[i*4:])))
		}
	case binning.Float64:
		col.Floats = make([]float64, length)
		for i := range col.Floats {
			col.Floats[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[i*8:]))
		}
	}
	return col
}
