package textnorm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	n := New()

	tests := []struct {
		name            string
		text            string
		removeStopwords bool
		mode            StemMode
		want            NormalizedText
	}{
		{
			name:            "empty string",
			text:            "",
			removeStopwords: true,
			mode:            None,
			want:            NormalizedText{},
		},
		{
			name:            "whitespace only",
			text:            "  \n\t ",
			removeStopwords: true,
			mode:            Lemmatize,
			want:            NormalizedText{},
		},
		{
			name:            "punctuation only",
			text:            "?!... --",
			removeStopwords: false,
			mode:            None,
			want:            NormalizedText{},
		},
		{
			name:            "two sentences keep stopwords",
			text:            "The Quick brown fox. It jumped!",
			removeStopwords: false,
			mode:            None,
			want:            NormalizedText{{"the", "quick", "brown", "fox"}, {"it", "jumped"}},
		},
		{
			name:            "two sentences drop stopwords",
			text:            "The Quick brown fox. It jumped over the dog!",
			removeStopwords: true,
			mode:            None,
			want:            NormalizedText{{"quick", "brown", "fox"}, {"jumped", "dog"}},
		},
		{
			name:            "non word characters stripped",
			text:            "Hello, world -- (again)",
			removeStopwords: false,
			mode:            None,
			want:            NormalizedText{{"hello", "world", "again"}},
		},
		{
			name:            "apostrophes removed before tokenizing",
			text:            "Don't stop",
			removeStopwords: false,
			mode:            None,
			want:            NormalizedText{{"dont", "stop"}},
		},
		{
			name:            "unicode word characters",
			text:            "Café naïve résumé",
			removeStopwords: false,
			mode:            None,
			want:            NormalizedText{{"café", "naïve", "résumé"}},
		},
		{
			name:            "snowball stemming",
			text:            "Running jumps",
			removeStopwords: true,
			mode:            Stem,
			want:            NormalizedText{{"run", "jump"}},
		},
		{
			name:            "sentence of stopwords disappears",
			text:            "Recipes for bread. It is what it is.",
			removeStopwords: true,
			mode:            None,
			want:            NormalizedText{{"recipes", "bread"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.text, tt.removeStopwords, tt.mode)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeLemmatize(t *testing.T) {
	n := New()
	require.NoError(t, Preload(Lemmatize))

	got := n.NormalizeString("The cats chased the mice", true, Lemmatize)
	require.Equal(t, "cat chase mouse", got)
}

func TestNormalizeNeverReturnsStopwords(t *testing.T) {
	n := New()

	texts := []string{
		"I am what I am, and that's all that I am.",
		"Beings of the world: THE END is not near. Having said that, we were doing fine!",
		"Why? Because they couldn't, wouldn't and shouldn't have done it themselves.",
		"Ours, yours, theirs -- hers and his. Once more, over and over again.",
		"",
	}

	for _, mode := range []StemMode{None, Stem, Lemmatize} {
		for _, text := range texts {
			for _, token := range n.Normalize(text, true, mode).Tokens() {
				require.Falsef(t, IsStopword(token), "mode %s produced stopword %q from %q", mode, token, text)
			}
		}
	}
}

func TestNormalizedTextString(t *testing.T) {
	text := NormalizedText{{"alpha", "beta"}, {}, {"gamma"}}
	require.Equal(t, "alpha beta gamma", text.String())
	require.Equal(t, []string{"alpha", "beta", "gamma"}, text.Tokens())
	require.Equal(t, "", NormalizedText{}.String())
}

func TestNormalizerMemoizesReducedTokens(t *testing.T) {
	n := New()
	first := n.NormalizeString("running running", false, Stem)
	require.Equal(t, "run run", first)

	cached, found := n.reduced.Get("stem:running")
	require.True(t, found)
	require.Equal(t, "run", cached)

	// the memo is keyed per mode
	require.Equal(t, "running", n.NormalizeString("running", false, None))
}

func TestIsStopword(t *testing.T) {
	require.True(t, IsStopword("the"))
	require.True(t, IsStopword("THE"))
	require.True(t, IsStopword("Doesnt"))
	require.False(t, IsStopword("evergreen"))
	require.False(t, IsStopword(""))
}

func TestParseStemMode(t *testing.T) {
	tests := []struct {
		in      string
		want    StemMode
		wantErr bool
	}{
		{in: "none", want: None},
		{in: "", want: None},
		{in: "stem", want: Stem},
		{in: "Porter", want: Stem},
		{in: "lemmatize", want: Lemmatize},
		{in: " WordNet ", want: Lemmatize},
		{in: "soundex", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStemMode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.False(t, strings.Contains(got.String(), "unknown"))
		})
	}
}
