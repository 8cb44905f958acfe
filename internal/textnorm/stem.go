package textnorm

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/kljensen/snowball"
)

// StemMode selects the per-token reduction applied after stopword removal.
type StemMode int

const (
	// None leaves tokens unchanged
	None StemMode = iota
	// Stem applies the snowball English (Porter2) stemmer
	Stem
	// Lemmatize maps tokens to their dictionary lemma (default)
	Lemmatize
)

// String returns the string representation of the stem mode.
func (m StemMode) String() string {
	switch m {
	case None:
		return "none"
	case Stem:
		return "stem"
	case Lemmatize:
		return "lemmatize"
	default:
		return "unknown"
	}
}

// ParseStemMode converts a configuration value into a StemMode.
func ParseStemMode(s string) (StemMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return None, nil
	case "stem", "porter":
		return Stem, nil
	case "lemmatize", "lemma", "wordnet":
		return Lemmatize, nil
	default:
		return None, fmt.Errorf("unknown stem mode %q (want none, stem or lemmatize)", s)
	}
}

var (
	lemmatizer     *golem.Lemmatizer
	lemmatizerErr  error
	lemmatizerOnce sync.Once
)

// getLemmatizer loads the English lemma dictionary on first use. The
// dictionary is never written after loading.
func getLemmatizer() (*golem.Lemmatizer, error) {
	lemmatizerOnce.Do(func() {
		lemmatizer, lemmatizerErr = golem.New(en.New())
		if lemmatizerErr != nil {
			lemmatizerErr = fmt.Errorf("failed to load english lemmatizer: %w", lemmatizerErr)
		}
	})
	return lemmatizer, lemmatizerErr
}

// reduce applies mode to a single lowercase token.
func reduce(token string, mode StemMode) string {
	switch mode {
	case Stem:
		stemmed, err := snowball.Stem(token, "english", true)
		if err != nil {
			// if stemming fails, use the original token
			return token
		}
		return stemmed
	case Lemmatize:
		l, err := getLemmatizer()
		if err != nil {
			slog.Debug("Lemmatizer unavailable, keeping token", "token", token, "error", err)
			return token
		}
		return l.Lemma(token)
	default:
		return token
	}
}

// Preload initializes the shared resources mode depends on, surfacing load
// failures before any record is processed.
func Preload(mode StemMode) error {
	if _, err := getSentenceTokenizer(); err != nil {
		return fmt.Errorf("failed to load english sentence tokenizer: %w", err)
	}
	if mode != Lemmatize {
		return nil
	}
	_, err := getLemmatizer()
	return err
}
