package textnorm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	n := New()

	tests := []struct {
		name string
		url  string
		mode StemMode
		want string
	}{
		{
			name: "boilerplate and scheme dropped",
			url:  "http://www.example.com/page1",
			mode: None,
			want: "example page1",
		},
		{
			name: "numeric path segments dropped",
			url:  "https://news.example.org/2013/05/17/story.html",
			mode: None,
			want: "news example story",
		},
		{
			name: "mobile host and stopwords dropped",
			url:  "http://m.example.net/how-to-bake-the-best-bread.htm",
			mode: None,
			want: "example bake best bread",
		},
		{
			name: "stemmed tokens",
			url:  "http://www.recipes.com/baking/cookies",
			mode: Stem,
			want: "recip bake cooki",
		},
		{
			name: "empty url",
			url:  "",
			mode: Lemmatize,
			want: "",
		},
		{
			name: "only boilerplate",
			url:  "https://www.com/123/index.html",
			mode: None,
			want: "index",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, n.NormalizeURL(tt.url, tt.mode))
		})
	}
}

func TestIsNumeric(t *testing.T) {
	require.True(t, isNumeric("2013"))
	require.True(t, isNumeric("٣"))
	require.False(t, isNumeric("page1"))
	require.False(t, isNumeric(""))
}
