package dataprocessing

import (
	"sort"

	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// Direction orders a ranking
type Direction int

const (
	Descending Direction = iota
	Ascending
)

// RankIndices returns the positions of the n best numeric values in direction
// order. Ties keep their original order and missing values are excluded.
// n <= 0 or n larger than the ranked count returns every ranked position.
func RankIndices(values []domain.Value, n int, dir Direction) []int {
	idx := make([]int, 0, len(values))
	for i, v := range values {
		if v.IsNumber() {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		x, _ := values[idx[a]].Float()
		y, _ := values[idx[b]].Float()
		if dir == Ascending {
			return x < y
		}
		return x > y
	})
	if n > 0 && n < len(idx) {
		idx = idx[:n]
	}
	return idx
}

// TopN returns the rows holding the n best values of column in direction order
func TopN(ds *domain.Dataset, column string, n int, dir Direction) *domain.Dataset {
	values, ok := ds.Column(column)
	if !ok {
		return domain.EmptyDataset(ds.Name(), ds.Schema())
	}
	return ds.Take(RankIndices(values, n, dir))
}

// SortBy orders every row by column, stable, with missing values last
func SortBy(ds *domain.Dataset, column string, dir Direction) *domain.Dataset {
	values, ok := ds.Column(column)
	if !ok {
		return ds
	}
	ranked := RankIndices(values, 0, dir)
	for i, v := range values {
		if !v.IsNumber() {
			ranked = append(ranked, i)
		}
	}
	return ds.Take(ranked)
}

// FrequencyAcrossGroups counts in how many lists each entity appears. Repeats
// inside one list count once. Entities present in every list are "always", the
// others "sometimes". The result is ordered by count descending, then by first
// appearance.
func FrequencyAcrossGroups(lists [][]string) []domain.Frequency {
	counts := make(map[string]int)
	var order []string
	for _, list := range lists {
		seen := make(map[string]bool, len(list))
		for _, entity := range list {
			if seen[entity] {
				continue
			}
			seen[entity] = true
			if _, known := counts[entity]; !known {
				order = append(order, entity)
			}
			counts[entity]++
		}
	}

	out := make([]domain.Frequency, 0, len(order))
	for _, entity := range order {
		presence := domain.PresenceSometimes
		if counts[entity] == len(lists) {
			presence = domain.PresenceAlways
		}
		out = append(out, domain.Frequency{
			Entity:   entity,
			Count:    counts[entity],
			Groups:   len(lists),
			Presence: presence,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}
