// Package tfidf builds TF-IDF (Term Frequency-Inverse Document Frequency)
// feature matrices from feature strings.
//
// A Vectorizer learns a vocabulary of word n-grams and their inverse document
// frequencies from a set of documents, then turns documents into sparse rows
// of weighted term frequencies:
//
//   - Term Frequency (TF): 1 + ln(count) with sublinear scaling, else count
//   - Inverse Document Frequency (IDF): ln((1+n)/(1+df)) + 1 when smoothed,
//     ln(n/df) + 1 otherwise
//
// Each row is scaled to unit Euclidean length.
//
// Usage Example:
//
//	v := tfidf.Fit(documents, tfidf.DefaultOptions())
//	matrix := v.Transform(documents)
package tfidf

import (
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// tokenRegex matches words of two or more word characters
var tokenRegex = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]{2,}`)

// Options configures vocabulary learning and term weighting.
type Options struct {
	MinDF        int  // drop terms found in fewer documents than this
	NGramMin     int  // shortest n-gram
	NGramMax     int  // longest n-gram
	SmoothIDF    bool // add one to document counts, as if a document held every term
	SublinearTF  bool // use 1 + ln(tf) instead of tf
	StripAccents bool // remove combining marks after unicode decomposition
}

// DefaultOptions returns the weighting used by the classification pipeline:
// unigrams and bigrams seen in at least 15 documents, smoothed IDF and
// sublinear TF.
func DefaultOptions() Options {
	return Options{
		MinDF:        15,
		NGramMin:     1,
		NGramMax:     2,
		SmoothIDF:    true,
		SublinearTF:  true,
		StripAccents: true,
	}
}

// Vectorizer holds a learned vocabulary and IDF weights.
type Vectorizer struct {
	Terms      []string       // vocabulary in column order
	Vocabulary map[string]int // term to column
	IDF        []float64      // IDF weight per column
	opts       Options
}

// Fit learns the vocabulary and IDF weights of documents.
//
// Parameters:
//   - documents: feature strings to learn from
//   - opts: n-gram range, document frequency cutoff and weighting options
//
// Returns a Vectorizer whose columns are the surviving terms in lexical order.
// An empty vocabulary is allowed and yields zero-column matrices.
func Fit(documents []string, opts Options) *Vectorizer {
	opts = withDefaults(opts)

	// track document frequency for each unique term
	docFrequencies := make(map[string]int)
	for _, doc := range documents {
		unique := make(map[string]struct{})
		for _, term := range analyze(doc, opts) {
			unique[term] = struct{}{}
		}
		for term := range unique {
			docFrequencies[term]++
		}
	}

	var terms []string
	for term, df := range docFrequencies {
		if df >= opts.MinDF {
			terms = append(terms, term)
		}
	}
	sort.Strings(terms)

	v := &Vectorizer{
		Terms:      terms,
		Vocabulary: make(map[string]int, len(terms)),
		IDF:        make([]float64, len(terms)),
		opts:       opts,
	}

	n := float64(len(documents))
	for j, term := range terms {
		v.Vocabulary[term] = j
		df := float64(docFrequencies[term])
		if opts.SmoothIDF {
			v.IDF[j] = math.Log((1+n)/(1+df)) + 1
		} else {
			v.IDF[j] = math.Log(n/df) + 1
		}
	}

	if len(terms) == 0 {
		slog.Warn("TF-IDF vocabulary is empty after pruning", "documents", len(documents), "minDF", opts.MinDF, "candidateTerms", len(docFrequencies))
	}
	slog.Debug("TF-IDF vocabulary learned", "documents", len(documents), "candidateTerms", len(docFrequencies), "terms", len(terms))
	return v
}

// Transform converts documents into rows of L2-normalized TF-IDF weights.
// Terms outside the vocabulary are ignored.
func (v *Vectorizer) Transform(documents []string) *Matrix {
	rows := make([]Vector, len(documents))
	for i, doc := range documents {
		counts := make(map[int]float64)
		for _, term := range analyze(doc, v.opts) {
			if j, ok := v.Vocabulary[term]; ok {
				counts[j]++
			}
		}

		var sumSquares float64
		for j, tf := range counts {
			if v.opts.SublinearTF {
				tf = 1 + math.Log(tf)
			}
			w := tf * v.IDF[j]
			counts[j] = w
			sumSquares += w * w
		}
		if sumSquares > 0 {
			scale := 1 / math.Sqrt(sumSquares)
			for j := range counts {
				counts[j] *= scale
			}
		}

		rows[i] = vectorFromCounts(counts)
	}
	return NewMatrix(rows, len(v.Terms))
}

// FitTransformSplit fits on the concatenation of train and test, transforms
// that same concatenation, and splits the rows back at len(train).
func FitTransformSplit(train, test []string, opts Options) (*Matrix, *Matrix, *Vectorizer) {
	combined := make([]string, 0, len(train)+len(test))
	combined = append(combined, train...)
	combined = append(combined, test...)

	v := Fit(combined, opts)
	m := v.Transform(combined)

	return m.Slice(0, len(train)), m.Slice(len(train), m.NumRows()), v
}

// withDefaults fills unset n-gram bounds and document frequency.
func withDefaults(opts Options) Options {
	if opts.MinDF < 1 {
		opts.MinDF = 1
	}
	if opts.NGramMin < 1 {
		opts.NGramMin = 1
	}
	if opts.NGramMax < opts.NGramMin {
		opts.NGramMax = opts.NGramMin
	}
	return opts
}

// analyze turns a document into its n-gram terms.
func analyze(doc string, opts Options) []string {
	tokens := tokenize(doc, opts.StripAccents)
	if opts.NGramMin == 1 && opts.NGramMax == 1 {
		return tokens
	}

	var terms []string
	for n := opts.NGramMin; n <= opts.NGramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

// tokenize lowercases text, optionally strips accents, and extracts words of
// at least two word characters.
func tokenize(text string, stripAccents bool) []string {
	if text == "" {
		return []string{}
	}

	text = strings.ToLower(text)
	if stripAccents {
		text = removeAccents(text)
	}

	tokens := tokenRegex.FindAllString(text, -1)
	if tokens == nil {
		return []string{}
	}
	return tokens
}

// removeAccents decomposes text and drops combining marks ("café" -> "cafe").
func removeAccents(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}
