// Package queryfile reads SQL query definitions from plain or compressed files.
package queryfile

import (
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// ErrEmptyQuery is returned for a file containing only whitespace.
var ErrEmptyQuery = errors.New("queryfile: query is empty")

// Compression identifies how a query file is encoded.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGZ
	CompressionBZ2
	CompressionXZ
	CompressionZSTD
)

const (
	extGZ   = ".gz"
	extBZ2  = ".bz2"
	extXZ   = ".xz"
	extZSTD = ".zst"
)

// maxQuerySize bounds how much decompressed text is read.
const maxQuerySize = 16 << 20

// Detect returns the compression implied by the file extension.
func Detect(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case extGZ:
		return CompressionGZ
	case extBZ2:
		return CompressionBZ2
	case extXZ:
		return CompressionXZ
	case extZSTD:
		return CompressionZSTD
	}
	return CompressionNone
}

func (c Compression) Extension() string {
	switch c {
	case CompressionGZ:
		return extGZ
	case CompressionBZ2:
		return extBZ2
	case CompressionXZ:
		return extXZ
	case CompressionZSTD:
		return extZSTD
	}
	return ""
}

// NewReader wraps r with the decompressor for c. The returned cleanup must
// be called once reading is done.
func NewReader(r io.Reader, c Compression) (io.Reader, func() error, error) {
	switch c {
	case CompressionGZ:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gz, gz.Close, nil
	case CompressionBZ2:
		return bzip2.NewReader(r), func() error { return nil }, nil
	case CompressionXZ:
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xzr, func() error { return nil }, nil
	case CompressionZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return dec, func() error {
			dec.Close()
			return nil
		}, nil
	}
	return r, func() error { return nil }, nil
}

// Read returns the query text stored at path. Open failures are returned
// as the underlying *fs.PathError so callers can inspect the errno.
func Read(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	r, cleanup, err := NewReader(f, Detect(path))
	if err != nil {
		return "", err
	}
	defer cleanup()

	data, err := io.ReadAll(io.LimitReader(r, maxQuerySize+1))
	if err != nil {
		return "", fmt.Errorf("read query file %s: %w", path, err)
	}
	if len(data) > maxQuerySize {
		return "", fmt.Errorf("query file %s exceeds %d bytes", path, maxQuerySize)
	}

	query := strings.TrimSpace(strings.TrimPrefix(string(data), "\ufeff"))
	if query == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyQuery, path)
	}
	return query, nil
}

// DefaultOutputPath derives "<query>_result.xlsx" from the query path, after
// dropping any compression extension.
func DefaultOutputPath(queryPath string) string {
	if c := Detect(queryPath); c != CompressionNone {
		queryPath = queryPath[:len(queryPath)-len(c.Extension())]
	}
	return queryPath + "_result.xlsx"
}
