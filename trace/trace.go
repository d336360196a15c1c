// Package trace stores error traces as CSV, optionally compressed.
package trace

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec selects the compression wrapped around the CSV stream.
type Codec string

const (
	None Codec = "none"
	Zstd Codec = "zstd"
	LZ4  Codec = "lz4"
)

var header = []string{"step", "distance"}

// ParseCodec accepts none, zstd or lz4 in any case.
func ParseCodec(s string) (Codec, error) {
	switch c := Codec(strings.ToLower(strings.TrimSpace(s))); c {
	case None, Zstd, LZ4:
		return c, nil
	case "":
		return None, nil
	}
	return None, fmt.Errorf("unknown trace codec %q", s)
}

// Ext is the file name suffix for artifacts written with c.
func (c Codec) Ext() string {
	switch c {
	case Zstd:
		return ".csv.zst"
	case LZ4:
		return ".csv.lz4"
	}
	return ".csv"
}

// ContentType is the MIME type for artifacts written with c.
func (c Codec) ContentType() string {
	switch c {
	case Zstd:
		return "application/zstd"
	case LZ4:
		return "application/x-lz4"
	}
	return "text/csv"
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func (c Codec) writer(w io.Writer) (io.WriteCloser, error) {
	switch c {
	case None:
		return nopCloser{w}, nil
	case Zstd:
		return zstd.NewWriter(w)
	case LZ4:
		return lz4.NewWriter(w), nil
	}
	return nil, fmt.Errorf("unknown trace codec %q", string(c))
}

// Write encodes values as step,distance rows.
func Write(w io.Writer, values []float64, c Codec) error {
	cw, err := c.writer(w)
	if err != nil {
		return err
	}

	out := csv.NewWriter(cw)
	if err := out.Write(header); err != nil {
		return fmt.Errorf("could not write trace header: %v", err)
	}
	for i, v := range values {
		if err := out.Write([]string{strconv.Itoa(i), strconv.FormatFloat(v, 'g', -1, 64)}); err != nil {
			return fmt.Errorf("could not write trace row %d: %v", i, err)
		}
	}
	out.Flush()
	if err := out.Error(); err != nil {
		return fmt.Errorf("could not flush trace: %v", err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("could not close %s stream: %v", c, err)
	}
	return nil
}

// Read decodes a trace written by Write with the same codec.
func Read(r io.Reader, c Codec) ([]float64, error) {
	switch c {
	case None:
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("could not open zstd stream: %v", err)
		}
		defer dec.Close()
		r = dec
	case LZ4:
		r = lz4.NewReader(r)
	default:
		return nil, fmt.Errorf("unknown trace codec %q", string(c))
	}

	in := csv.NewReader(r)
	in.FieldsPerRecord = len(header)
	records, err := in.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("could not read trace: %v", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("trace is missing its header")
	}

	values := make([]float64, 0, len(records)-1)
	for i, rec := range records[1:] {
		step, err := strconv.Atoi(rec[0])
		if err != nil || step != i {
			return nil, fmt.Errorf("trace row %d has step %q", i, rec[0])
		}
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("trace row %d: %v", i, err)
		}
		values = append(values, v)
	}
	return values, nil
}
