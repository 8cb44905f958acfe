// Package corpus assembles the per-record feature strings fed to the term
// filter and the vectorizer.
package corpus

import (
	"fmt"
)

// Assemble joins the normalized url, title and body of each record as
// "url title body". The three slices are positionally aligned and must
// have the same length; the result keeps that order.
func Assemble(urls, titles, bodies []string) ([]string, error) {
	if len(urls) != len(titles) || len(titles) != len(bodies) {
		return nil, fmt.Errorf("misaligned record fields: %d urls, %d titles, %d bodies",
			len(urls), len(titles), len(bodies))
	}

	entries := make([]string, len(urls))
	for i := range urls {
		entries[i] = urls[i] + " " + titles[i] + " " + bodies[i]
	}
	return entries, nil
}
