// Package textnorm turns raw page text and URLs into normalized token streams.
//
// Normalization follows a fixed sequence: split into sentences, keep only runs
// of word characters, lowercase, tokenize into words, optionally drop English
// stopwords, then stem or lemmatize each token.
//
// Usage Example:
//
//	n := textnorm.New()
//	text := n.Normalize("The cats were running.", true, textnorm.Lemmatize)
//	fmt.Println(text.String()) // "cat run"
//
// Shared resources (stopword set, sentence tokenizer, lemma dictionary) are
// loaded lazily once and never modified afterwards.
package textnorm

import (
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/jdkato/prose/v2"
	gocache "github.com/patrickmn/go-cache"
	"gopkg.in/neurosnap/sentences.v1"
	"gopkg.in/neurosnap/sentences.v1/english"
)

// wordRunRegex matches maximal runs of Unicode word characters
var wordRunRegex = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)

// NormalizedText is an ordered list of sentences, each an ordered list of tokens.
type NormalizedText [][]string

// String flattens the text to a single space-joined string, skipping empty sentences.
func (t NormalizedText) String() string {
	parts := make([]string, 0, len(t))
	for _, sentence := range t {
		if len(sentence) == 0 {
			continue
		}
		parts = append(parts, strings.Join(sentence, " "))
	}
	return strings.Join(parts, " ")
}

// Tokens returns all tokens in order, ignoring sentence boundaries.
func (t NormalizedText) Tokens() []string {
	var tokens []string
	for _, sentence := range t {
		tokens = append(tokens, sentence...)
	}
	return tokens
}

var (
	sentenceTokenizer     *sentences.DefaultSentenceTokenizer
	sentenceTokenizerErr  error
	sentenceTokenizerOnce sync.Once
)

func getSentenceTokenizer() (*sentences.DefaultSentenceTokenizer, error) {
	sentenceTokenizerOnce.Do(func() {
		sentenceTokenizer, sentenceTokenizerErr = english.NewSentenceTokenizer(nil)
	})
	return sentenceTokenizer, sentenceTokenizerErr
}

// Normalizer normalizes text and URLs. Reduced forms of tokens are memoized,
// so a single Normalizer should be reused across a whole corpus.
type Normalizer struct {
	reduced *gocache.Cache
}

// New creates a Normalizer with an empty memo of reduced tokens.
func New() *Normalizer {
	return &Normalizer{
		// no expiration and no janitor: the memo lives as long as the run
		reduced: gocache.New(gocache.NoExpiration, 0),
	}
}

// Normalize splits text into sentences and returns the normalized tokens of each.
//
// Parameters:
//   - text: raw title or body text
//   - removeStopwords: drop English stopwords when true
//   - mode: per-token stemming or lemmatization
//
// Returns the normalized sentences; empty input yields an empty result.
func (n *Normalizer) Normalize(text string, removeStopwords bool, mode StemMode) NormalizedText {
	text = strings.ReplaceAll(text, "'", "")
	if strings.TrimSpace(text) == "" {
		return NormalizedText{}
	}

	var result NormalizedText
	for _, sentence := range splitSentences(text) {
		var words []string
		for _, token := range tokenizeWords(sentence) {
			if removeStopwords && IsStopword(token) {
				continue
			}
			reduced := n.reduce(token, mode)
			// a reduced form can itself be a stopword ("beings" -> "being")
			if removeStopwords && IsStopword(reduced) {
				continue
			}
			words = append(words, reduced)
		}
		if len(words) > 0 {
			result = append(result, words)
		}
	}

	if result == nil {
		return NormalizedText{}
	}
	return result
}

// NormalizeString is Normalize flattened to a single space-joined string.
func (n *Normalizer) NormalizeString(text string, removeStopwords bool, mode StemMode) string {
	return n.Normalize(text, removeStopwords, mode).String()
}

// reduce returns the memoized stem or lemma of token.
func (n *Normalizer) reduce(token string, mode StemMode) string {
	if mode == None {
		return token
	}

	key := mode.String() + ":" + token
	if cached, found := n.reduced.Get(key); found {
		return cached.(string)
	}

	reduced := reduce(token, mode)
	n.reduced.Set(key, reduced, gocache.NoExpiration)
	return reduced
}

// splitSentences segments text with the English punkt tokenizer.
func splitSentences(text string) []string {
	tokenizer, err := getSentenceTokenizer()
	if err != nil {
		slog.Debug("Sentence tokenizer unavailable, treating text as one sentence", "error", err)
		return []string{text}
	}

	var out []string
	for _, s := range tokenizer.Tokenize(text) {
		if strings.TrimSpace(s.Text) != "" {
			out = append(out, s.Text)
		}
	}
	return out
}

// tokenizeWords keeps only word-character runs of sentence, lowercases them
// and splits the result into word tokens.
func tokenizeWords(sentence string) []string {
	cleaned := strings.ToLower(strings.Join(wordRunRegex.FindAllString(sentence, -1), " "))
	if cleaned == "" {
		return nil
	}

	doc, err := prose.NewDocument(cleaned,
		prose.WithSegmentation(false),
		prose.WithTagging(false),
		prose.WithExtraction(false))
	if err != nil {
		// the cleaned text is already space separated word runs
		slog.Debug("Word tokenizer failed, splitting on whitespace", "error", err)
		return strings.Fields(cleaned)
	}

	tokens := make([]string, 0, len(doc.Tokens()))
	for _, tok := range doc.Tokens() {
		if tok.Text != "" {
			tokens = append(tokens, tok.Text)
		}
	}
	return tokens
}
