package search

import "github.com/poiesic/wikipath/core"

// CleanPath removes the loop from a path that revisits a page.
// Steps are scanned in order; at the first step whose Origin was already seen,
// the path is cut back to end at the earlier step with that Origin. A path
// without repeated origins is returned unchanged. Origins compare exactly.
func CleanPath(path core.Path) core.Path {
	seen := make(map[string]int, len(path))
	for i, step := range path {
		if first, ok := seen[step.Origin]; ok {
			return path[:first+1]
		}
		seen[step.Origin] = i
	}
	return path
}
