package dataset

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name      string
		setupFunc func(t *testing.T) string
		wantErr   string
		wantData  string
	}{
		{
			name: "local file success",
			setupFunc: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "test.tsv")
				require.NoError(t, os.WriteFile(path, []byte("content from file"), 0o644))
				return path
			},
			wantData: "content from file",
		},
		{
			name: "non-existent file",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing.tsv")
			},
			wantErr: "does not exist",
		},
		{
			name: "directory",
			setupFunc: func(t *testing.T) string {
				return t.TempDir()
			},
			wantErr: "is a directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := tt.setupFunc(t)

			reader, err := Open(source)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer reader.Close()

			data, err := io.ReadAll(reader)
			require.NoError(t, err)
			require.Equal(t, tt.wantData, string(data))
		})
	}
}

func TestOpenStdin(t *testing.T) {
	reader, err := Open("-")
	require.NoError(t, err)
	require.NotNil(t, reader)
	require.NoError(t, reader.Close())
}

func TestLimitedReadCloser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.tsv")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	file, err := os.Open(path)
	require.NoError(t, err)

	limited := &limitedReadCloser{ReadCloser: file, N: 4, source: path}
	defer limited.Close()

	_, err = io.ReadAll(limited)
	require.ErrorContains(t, err, "exceeds size limit")
}
