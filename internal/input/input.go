package input

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/therealutkarshpriyadarshi/logcat/internal/output"
)

// StdinName is the source name reported when reading standard input
const StdinName = "stdin"

// CompressionAuto detects gzip by magic bytes and snappy by file extension
const CompressionAuto output.CompressionType = "auto"

var gzipMagic = []byte{0x1f, 0x8b}

// Source is an opened log input
type Source struct {
	Name        string
	Compression output.CompressionType
	reader      io.Reader
	closer      io.Closer
}

// Read implements io.Reader
func (s *Source) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

// Close releases the underlying file, if any
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Open opens path for reading, or standard input when path is empty or "-"
func Open(path string, compression output.CompressionType) (*Source, error) {
	if path == "" || path == "-" {
		return FromReader(StdinName, os.Stdin, compression)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input %s: %w", path, err)
	}

	src, err := FromReader(path, f, compression)
	if err != nil {
		f.Close()
		return nil, err
	}
	src.closer = f
	return src, nil
}

// FromReader wraps r, decompressing it when required
func FromReader(name string, r io.Reader, compression output.CompressionType) (*Source, error) {
	if compression == "" {
		compression = CompressionAuto
	}

	buffered := bufio.NewReaderSize(r, 64*1024)

	if compression == CompressionAuto {
		compression = detect(name, buffered)
	}

	src := &Source{Name: name, Compression: compression}

	if compression == output.CompressionNone {
		src.reader = buffered
		return src, nil
	}

	compressor, err := output.GetCompressor(compression)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(buffered)
	if err != nil {
		return nil, fmt.Errorf("failed to read input %s: %w", name, err)
	}

	decompressed, err := compressor.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress input %s: %w", name, err)
	}

	src.reader = bytes.NewReader(decompressed)
	return src, nil
}

func detect(name string, r *bufio.Reader) output.CompressionType {
	if head, err := r.Peek(len(gzipMagic)); err == nil && bytes.Equal(head, gzipMagic) {
		return output.CompressionGzip
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".sz", ".snappy":
		return output.CompressionSnappy
	}
	return output.CompressionNone
}
