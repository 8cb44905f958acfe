package corpus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	tests := []struct {
		name    string
		urls    []string
		titles  []string
		bodies  []string
		want    []string
		wantErr bool
	}{
		{
			name:   "aligned records",
			urls:   []string{"example recipe", "news"},
			titles: []string{"bread", "election"},
			bodies: []string{"knead dough", "vote count"},
			want:   []string{"example recipe bread knead dough", "news election vote count"},
		},
		{
			name:   "empty fields keep separators",
			urls:   []string{""},
			titles: []string{""},
			bodies: []string{"body"},
			want:   []string{"  body"},
		},
		{
			name:   "no records",
			urls:   []string{},
			titles: []string{},
			bodies: []string{},
			want:   []string{},
		},
		{
			name:    "misaligned",
			urls:    []string{"a", "b"},
			titles:  []string{"a"},
			bodies:  []string{"a", "b"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Assemble(tt.urls, tt.titles, tt.bodies)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
