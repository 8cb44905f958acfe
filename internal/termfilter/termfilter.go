// Package termfilter finds terms that are frequent in both the evergreen and
// the ephemeral training pages and strips them from feature strings.
//
// A term that is common in both classes says little about either, so it is
// treated as noise:
//
//	ignore, err := termfilter.Compute(trainCorpus, labels)
//	trainCorpus = termfilter.Apply(trainCorpus, ignore)
//	testCorpus = termfilter.Apply(testCorpus, ignore)
//
// Frequencies are fractions of all tokens in a class, computed from training
// data only.
package termfilter

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Threshold is the class fraction a term must strictly exceed, in both
// classes, to be considered high frequency.
const Threshold = 0.0001

const (
	// Ephemeral is the label of short-lived pages
	Ephemeral = 0
	// Evergreen is the label of pages that stay relevant
	Evergreen = 1
)

var (
	// ErrInvalidLabel is returned for a training label outside {0, 1}.
	ErrInvalidLabel = errors.New("label is not 0 or 1")
	// ErrEmptyPartition is returned when a class has no tokens at all.
	ErrEmptyPartition = errors.New("class partition has no tokens")
)

// FrequencyTable maps a term to its fraction of all tokens in one class.
type FrequencyTable map[string]float64

// TermSet is a set of terms.
type TermSet map[string]struct{}

// Contains reports whether term is in the set.
func (s TermSet) Contains(term string) bool {
	_, ok := s[term]
	return ok
}

// Sorted returns the terms in lexical order.
func (s TermSet) Sorted() []string {
	terms := make([]string, 0, len(s))
	for term := range s {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// Accumulator counts term occurrences for one class.
type Accumulator struct {
	counts map[string]int
	total  int
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{counts: make(map[string]int)}
}

// Add counts every whitespace-separated term of entry.
func (a *Accumulator) Add(entry string) {
	for _, term := range strings.Fields(entry) {
		a.counts[term]++
		a.total++
	}
}

// Total returns the number of tokens counted so far.
func (a *Accumulator) Total() int {
	return a.total
}

// Table converts counts to fractions of the class token total.
// Returns ErrEmptyPartition when no tokens were counted.
func (a *Accumulator) Table() (FrequencyTable, error) {
	if a.total == 0 {
		return nil, ErrEmptyPartition
	}

	table := make(FrequencyTable, len(a.counts))
	total := float64(a.total)
	for term, count := range a.counts {
		table[term] = float64(count) / total
	}
	return table, nil
}

// Compute returns the terms whose class fraction exceeds Threshold in both
// classes of the training corpus.
func Compute(corpus []string, labels []int) (TermSet, error) {
	return ComputeWithThreshold(corpus, labels, Threshold)
}

// ComputeWithThreshold is Compute with a custom threshold.
//
// Parameters:
//   - corpus: training feature strings, one per record
//   - labels: training labels aligned with corpus, each 0 or 1
//   - threshold: fraction a term must strictly exceed in both classes
//
// Returns ErrInvalidLabel if any label is outside {0, 1} (checked before
// counting) and ErrEmptyPartition if either class has no tokens.
func ComputeWithThreshold(corpus []string, labels []int, threshold float64) (TermSet, error) {
	if len(corpus) != len(labels) {
		return nil, fmt.Errorf("corpus has %d entries but %d labels", len(corpus), len(labels))
	}
	for i, label := range labels {
		if label != Evergreen && label != Ephemeral {
			return nil, fmt.Errorf("%w: record %d has label %d", ErrInvalidLabel, i, label)
		}
	}

	evergreen := NewAccumulator()
	ephemeral := NewAccumulator()
	for i, entry := range corpus {
		if labels[i] == Evergreen {
			evergreen.Add(entry)
		} else {
			ephemeral.Add(entry)
		}
	}

	evergreenTable, err := evergreen.Table()
	if err != nil {
		return nil, fmt.Errorf("evergreen class: %w", err)
	}
	ephemeralTable, err := ephemeral.Table()
	if err != nil {
		return nil, fmt.Errorf("ephemeral class: %w", err)
	}

	return intersectAbove(evergreenTable, ephemeralTable, threshold), nil
}

// intersectAbove returns terms present in both tables with a fraction
// strictly above threshold in each.
func intersectAbove(a, b FrequencyTable, threshold float64) TermSet {
	set := make(TermSet)
	for term, fa := range a {
		fb, ok := b[term]
		if !ok {
			continue
		}
		if fa > threshold && fb > threshold {
			set[term] = struct{}{}
		}
	}

	slog.Debug("High-frequency terms computed", "classATerms", len(a), "classBTerms", len(b), "terms", len(set))
	return set
}

// Apply removes every term in ignore from each entry, keeping the order of
// the remaining terms. Applying the same set twice changes nothing.
func Apply(corpus []string, ignore TermSet) []string {
	out := make([]string, len(corpus))
	for i, entry := range corpus {
		terms := strings.Fields(entry)
		kept := terms[:0]
		for _, term := range terms {
			if !ignore.Contains(term) {
				kept = append(kept, term)
			}
		}
		out[i] = strings.Join(kept, " ")
	}
	return out
}
