package dataset

import (
	"fmt"
	"io"
	"os"
)

// MaxFileSizeBytes bounds the size of an input table.
const MaxFileSizeBytes = 512 * 1024 * 1024

// limitedReadCloser fails reads once more than N bytes have been consumed
type limitedReadCloser struct {
	io.ReadCloser
	N      int64
	source string
}

func (l *limitedReadCloser) Read(p []byte) (n int, err error) {
	if l.N <= 0 {
		return 0, fmt.Errorf("table %q exceeds size limit", l.source)
	}
	if int64(len(p)) > l.N {
		p = p[0:l.N]
	}
	n, err = l.ReadCloser.Read(p)
	l.N -= int64(n)
	return
}

// Open returns a reader for a table source: "-" reads from standard input,
// everything else is a local file path.
func Open(source string) (io.ReadCloser, error) {
	if source == "-" {
		return &limitedReadCloser{
			ReadCloser: io.NopCloser(os.Stdin),
			N:          MaxFileSizeBytes,
			source:     "stdin",
		}, nil
	}
	return openFile(source)
}

// openFile opens a local table, checking existence and size first
func openFile(path string) (io.ReadCloser, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file %q does not exist", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to access file %q: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%q is a directory, not a table", path)
	}
	if info.Size() > MaxFileSizeBytes {
		return nil, fmt.Errorf("file %q is too large (%d bytes > %d bytes limit)", path, info.Size(), MaxFileSizeBytes)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", path, err)
	}
	return file, nil
}
