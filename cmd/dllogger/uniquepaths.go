// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"path/filepath"
	"slices"
	"strings"
)

// MinimalUniquePaths returns, for each path, the minimal label that distinguishes it from the
// others: the path component where it differs from the others, or "first...last" differing
// components if it differs in more than one. It is used to label experiments in plots.
//
// Paths that are not distinguishable are labeled by their last component.
func MinimalUniquePaths(paths ...string) []string {
	if len(paths) <= 1 {
		labels := make([]string, len(paths))
		for ii, path := range paths {
			labels[ii] = filepath.Base(filepath.Clean(path))
		}
		return labels
	}

	splitPaths := make([][]string, len(paths))
	for ii, path := range paths {
		splitPaths[ii] = strings.Split(filepath.Clean(path), string(filepath.Separator))
	}

	labels := make([]string, len(paths))
	for ii, components := range splitPaths {
		var diffIndexes []int
		for jj, otherComponents := range splitPaths {
			if ii == jj {
				continue
			}
			minLen := min(len(components), len(otherComponents))
			for k := range minLen {
				if components[k] != otherComponents[k] && !slices.Contains(diffIndexes, k) {
					diffIndexes = append(diffIndexes, k)
				}
			}
			if len(components) > minLen && !slices.Contains(diffIndexes, minLen) {
				// Longer path: the first extra component is what tells it apart.
				diffIndexes = append(diffIndexes, minLen)
			}
		}
		slices.Sort(diffIndexes)

		switch len(diffIndexes) {
		case 0:
			labels[ii] = components[len(components)-1]
		case 1:
			labels[ii] = components[diffIndexes[0]]
		default:
			first := components[diffIndexes[0]]
			last := components[diffIndexes[len(diffIndexes)-1]]
			labels[ii] = first + "..." + last
		}
	}
	return labels
}
