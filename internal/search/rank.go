package search

import "sort"

// rank scores documents by the query terms they match. prefixHits[i] and
// exactHits[i] are the ids matched by query term i as a prefix and as a whole
// token. Each matched term is worth 2 points, plus 1 when it matched a whole
// token. Ties are broken by ascending id so pagination is stable.
func rank(prefixHits, exactHits [][]uint) []uint {
	scores := map[uint]int{}
	for _, ids := range prefixHits {
		for _, id := range dedupe(ids) {
			scores[id] += 2
		}
	}
	for _, ids := range exactHits {
		for _, id := range dedupe(ids) {
			scores[id]++
		}
	}

	out := make([]uint, 0, len(scores))
	for id := range scores {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		if scores[out[i]] != scores[out[j]] {
			return scores[out[i]] > scores[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
