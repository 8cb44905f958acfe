package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const trainTSV = "url\turlid\tboilerplate\talchemy_category\tlabel\n" +
	"http://www.bbc.co.uk/recipes/cake\t4042\t\"{\"\"title\"\":\"\"Cake\"\",\"\"body\"\":\"\"Bake it\"\"}\"\tbusiness\t1\n" +
	"http://news.example.com/2013/vote\t8471\t{\"title\": \"Vote\", \"body\": null}\trecreation\t0\n"

func TestRead(t *testing.T) {
	table, err := Read(strings.NewReader(trainTSV), Options{Labeled: true})
	require.NoError(t, err)
	require.Equal(t, []string{"url", "urlid", "boilerplate", "alchemy_category", "label"}, table.Header)
	require.Len(t, table.Records, 2)

	first := table.Records[0]
	require.Equal(t, "http://www.bbc.co.uk/recipes/cake", first.URL)
	require.Equal(t, `{"title":"Cake","body":"Bake it"}`, first.Payload)
	require.Equal(t, 1, first.Label)

	// unquoted field with embedded quotes is kept verbatim
	require.Equal(t, `{"title": "Vote", "body": null}`, table.Records[1].Payload)

	require.Equal(t, []int{1, 0}, table.Labels())
	require.Equal(t, []string{"http://www.bbc.co.uk/recipes/cake", "http://news.example.com/2013/vote"}, table.IDs())
	require.Equal(t, "http://news.example.com/2013/vote", table.Records[1].URL)
}

func TestReadIDColumn(t *testing.T) {
	table, err := Read(strings.NewReader(trainTSV), Options{Labeled: true, IDColumn: 1})
	require.NoError(t, err)
	require.Equal(t, []string{"4042", "8471"}, table.IDs())
}

func TestReadUnlabeled(t *testing.T) {
	input := "url\turlid\tboilerplate\n" +
		"http://a.example.com\t1\t{}\n"

	table, err := Read(strings.NewReader(input), Options{})
	require.NoError(t, err)
	require.Len(t, table.Records, 1)
	require.Zero(t, table.Records[0].Label)
	require.Equal(t, "{}", table.Records[0].Payload)
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		opts    Options
		wantErr error
	}{
		{
			name:    "empty input",
			input:   "",
			wantErr: ErrInvalidTable,
		},
		{
			name:    "too few columns",
			input:   "url\tboilerplate\nhttp://a\t{}\n",
			wantErr: ErrInvalidTable,
		},
		{
			name:    "labeled table without label column",
			input:   "url\turlid\tboilerplate\nhttp://a\t1\t{}\n",
			opts:    Options{Labeled: true},
			wantErr: ErrInvalidTable,
		},
		{
			name:    "id column out of range",
			input:   "url\turlid\tboilerplate\nhttp://a\t1\t{}\n",
			opts:    Options{IDColumn: 3},
			wantErr: ErrInvalidTable,
		},
		{
			name:  "non-integer label",
			input: "url\turlid\tboilerplate\tlabel\nhttp://a\t1\t{}\t?\n",
			opts:  Options{Labeled: true},
		},
		{
			name:  "ragged row",
			input: "url\turlid\tboilerplate\nhttp://a\t1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), tt.opts)
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestReadLabelErrorLine(t *testing.T) {
	input := "url\turlid\tboilerplate\tlabel\n" +
		"http://a.example.com\t1\t{}\t1\n" +
		"http://b.example.com\t2\t\"{'body': 'line one\nline two'}\"\tmaybe\n"

	_, err := Read(strings.NewReader(input), Options{Labeled: true})
	require.ErrorContains(t, err, `line 4: label "maybe" is not an integer`)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.tsv")
	require.NoError(t, os.WriteFile(path, []byte(trainTSV), 0o644))

	table, err := Load(path, Options{Labeled: true})
	require.NoError(t, err)
	require.Len(t, table.Records, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.tsv"), Options{})
	require.ErrorContains(t, err, "does not exist")
}

func TestWriteResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "prediction_test_data.csv")

	err := WriteResults(path, []string{"http://a.example.com", "b,c"}, []float64{0.25, 1e-05})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "id,label\nhttp://a.example.com,0.25\n\"b,c\",1e-05\n", string(data))

	require.Error(t, WriteResults(path, []string{"a"}, nil))
}

func TestWriteResultsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, WriteResults(path, nil, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "id,label\n", string(data))
}
