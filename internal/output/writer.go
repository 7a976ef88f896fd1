// Package output serialises a result set into the .ckt container: a magic
// and version header, one JSON metadata block plus a little-endian column
// payload per artifact, and a CRC32 footer. Files are written to a temp path
// and renamed into place on success.
package output

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/corrkit/corrkit/internal/binning"
	"github.com/corrkit/corrkit/internal/preprocess"
	cerrors "github.com/corrkit/corrkit/pkg/errors"
)

const (
	MagicBytes    uint32 = 0x434B5431 // "CKT1"
	FormatVersion uint32 = 1
	headerSize           = 24
	footerSize           = 8
)

type artifactMeta struct {
	Name       string       `json:"name"`
	Kind       string       `json:"kind"`
	Comments   []string     `json:"comments,omitempty"`
	Provenance []string     `json:"provenance,omitempty"`
	Columns    []columnMeta `json:"columns,omitempty"`
	Rows       int          `json:"rows,omitempty"`
	Cols       int          `json:"cols,omitempty"`
}

type columnMeta struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Length int    `json:"length"`
}

// Write serialises rs to path and returns the number of bytes written.
// Unless overwrite is set, an existing file is an error.
func Write(rs *preprocess.ResultSet, path string, overwrite bool) (int64, error) {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return 0, cerrors.Newf(cerrors.ErrOutputExists, "", "", "%s", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("creating output directory: %w", err)
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("creating temp output file: %w", err)
	}
	defer f.Close()

	crc := crc32.NewIEEE()
	w := &countingWriter{w: io.MultiWriter(f, crc)}

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(header[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(rs.Artifacts)))
	if _, err := w.Write(header); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}

	for i := range rs.Artifacts {
		if err := writeArtifact(w, &rs.Artifacts[i]); err != nil {
			return 0, fmt.Errorf("writing artifact %s: %w", rs.Artifacts[i].Name, err)
		}
	}

	footer := make([]byte, footerSize)
	binary.LittleEndian.PutUint32(footer[0:4], crc.Sum32())
	binary.LittleEndian.PutUint32(footer[4:8], MagicBytes)
	if _, err := w.Write(footer); err != nil {
		return 0, fmt.Errorf("writing footer: %w", err)
	}

	if err := f.Sync(); err != nil {
		return 0, fmt.Errorf("syncing output file: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("closing output file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return 0, fmt.Errorf("renaming output file: %w", err)
	}
	return w.n, nil
}

func writeArtifact(w io.Writer, art *preprocess.Artifact) error {
	meta := artifactMeta{
		Name:       art.Name,
		Comments:   art.Comments,
		Provenance: art.Provenance,
	}
	var payload bytes.Buffer
	switch {
	case art.Table != nil:
		meta.Kind = "table"
		for _, col := range art.Table.Columns {
			meta.Columns = append(meta.Columns, columnMeta{
				Name:   col.Name,
				Type:   col.Type.String(),
				Length: col.Len(),
			})
			if err := encodeColumn(&payload, col); err != nil {
				return err
			}
		}
	case art.Matrix != nil:
		meta.Kind = "matrix"
		meta.Rows, meta.Cols = art.Matrix.Dims()
		buf := make([]byte, 8)
		for i := 0; i < meta.Rows; i++ {
			for j := 0; j < meta.Cols; j++ {
				binary.LittleEndian.PutUint64(buf, math.Float64bits(art.Matrix.At(i, j)))
				payload.Write(buf)
			}
		}
	default:
		return fmt.Errorf("artifact has neither table nor matrix")
	}

	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	sizes := make([]byte, 12)
	binary.LittleEndian.PutUint32(sizes[0:4], uint32(len(metaData)))
	binary.LittleEndian.PutUint64(sizes[4:12], uint64(payload.Len()))
	if _, err := w.Write(sizes); err != nil {
		return err
	}
	if _, err := w.Write(metaData); err != nil {
		return err
	}
	_, err = w.Write(payload.Bytes())
	return err
}

// encodeColumn writes one column little-endian at its declared width.
func encodeColumn(buf *bytes.Buffer, col preprocess.Column) error {
	scratch := make([]byte, 8)
	switch col.Type {
	case binning.Int16:
		for _, v := range col.Ints {
			binary.LittleEndian.PutUint16(scratch[:2], uint16(int16(v)))
			buf.Write(scratch[:2])
		}
	case binning.Int32:
		for _, v := range col.Ints {
			binary.LittleEndian.PutUint32(scratch[:4], uint32(int32(v)))
			buf.Write(scratch[:4])
		}
	case binning.Int64:
		for _, v := range col.Ints {
			binary.LittleEndian.PutUint64(scratch, uint64(v))
			buf.Write(scratch)
		}
	case binning.Float32:
		for _, v := range col.Floats {
			binary.LittleEndian.PutUint32(scratch[:4], math.Float32bits(float32(v)))
			buf.Write(scratch[:4])
		}
	case binning.Float64:
		for _, v := range col.Floats {
			binary.LittleEndian.PutUint64(scratch, math.Float64bits(v))
			buf.Write(scratch)
		}
	default:
		return fmt.Errorf("column %s has unknown type %d", col.Name, col.Type)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
