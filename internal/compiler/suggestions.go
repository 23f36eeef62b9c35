// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"sort"
	"strings"
)

// suggestions returns the candidates similar to name, ordered by edit
// distance and then by name. A candidate is similar if its distance is at
// most a third of the length of name, rounded up, or if it contains name.
func suggestions(name string, candidates []string) []string {
	type suggestion struct {
		name     string
		distance int
	}
	max := (len(name) + 2) / 3
	var found []suggestion
	for _, c := range candidates {
		d := levenshtein(name, c)
		if d <= max || strings.Contains(c, name) {
			found = append(found, suggestion{c, d})
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].distance != found[j].distance {
			return found[i].distance < found[j].distance
		}
		return found[i].name < found[j].name
	})
	names := make([]string, len(found))
	for i, s := range found {
		names[i] = s.name
	}
	return names
}

// levenshtein returns the edit distance between the bytes of a and b.
func levenshtein(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
