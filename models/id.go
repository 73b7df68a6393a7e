package models

import (
	"fmt"
	"strconv"
	"strings"
)

// NextID returns the next sequential id in a kind's namespace, derived
// from the ids currently on disk: the numeric suffixes of ids matching
// the prefix are scanned for the maximum, which is incremented and
// zero-padded to at least three digits (FEA-001 ... FEA-1234). An empty
// or non-matching listing starts the sequence at 1.
//
// Because the sequence is recomputed from the live listing rather than a
// stored counter, deleting the current maximum id lets a later create
// mint the same id again; deleting any other id never does.
func NextID(prefix string, existing []string) string {
	max := 0
	for _, id := range existing {
		rest, ok := strings.CutPrefix(id, prefix+"-")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil || n <= 0 {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s-%03d", prefix, max+1)
}
