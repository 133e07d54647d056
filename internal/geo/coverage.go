package geo

import (
	"math"
	"sort"
)

// Range is a contiguous span of geohash strings, inclusive on both ends.
// End uses the "high sentinel" trick: '~' sorts after every base-32
// character, so the range [cell, cell+"~"] matches every stored hash that
// starts with cell, regardless of stored precision.
type Range struct {
	Start string
	End   string
}

// Geohash cell dimensions in meters at the equator, indexed by precision.
// Widths (east-west) shrink with latitude; heights (north-south) do not.
var (
	cellWidths = [13]float64{
		0, 5009400, 1252300, 156500, 39100, 4890, 1220, 153, 38.2, 4.77, 1.19, 0.149, 0.0372,
	}
	cellHeights = [13]float64{
		0, 4992600, 624100, 156000, 19500, 4890, 610, 153, 19.1, 4.77, 0.596, 0.149, 0.0186,
	}
)

// precisionForRadius picks the longest hash prefix whose cell is still big
// enough that the 3x3 neighbor grid around the center cell is guaranteed to
// cover a disc of radiusM. The worst case is the search point sitting on a
// cell edge, where the grid extends exactly one cell dimension beyond it, so
// the smallest cell dimension must be at least radiusM. East-west extent is
// corrected for latitude.
//
// The result never exceeds DefaultPrecision: stored hashes are
// DefaultPrecision characters long, and a longer cover cell would sort
// after the stored hash it is meant to match ("ke7fyjxqj" < "ke7fyjxqj0"),
// so a sub-cell radius must still query at the stored precision.
func precisionForRadius(lat, radiusM float64) int {
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01 // polar caps: keep cells finite, the grid still wraps
	}
	for p := DefaultPrecision; p >= 1; p-- {
		minDim := cellHeights[p]
		if w := cellWidths[p] * cosLat; w < minDim {
			minDim = w
		}
		if minDim >= radiusM {
			return p
		}
	}
	return 1
}

// CoverRadius computes the minimal set of contiguous geohash ranges whose
// union covers a disc of radiusM meters around the center point. Geohash
// cells are rectangular and the query area is circular, so the union is a
// superset of the disc — callers must post-filter candidates by exact
// great-circle distance.
//
// Near the antimeridian and the poles the 3x3 grid wraps in hash space and
// the result is several disjoint ranges rather than one; the sort-and-merge
// step below keeps each returned range contiguous.
func CoverRadius(lat, lng, radiusM float64) []Range {
	precision := precisionForRadius(lat, radiusM)
	cells := AllNeighbors(Encode(lat, lng, precision))

	// Dedupe: wrapped neighbors can coincide at map edges.
	seen := make(map[string]struct{}, len(cells))
	unique := cells[:0]
	for _, c := range cells {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		unique = append(unique, c)
	}
	sort.Strings(unique)

	// Merge runs of base32-consecutive cells into single ranges, so that a
	// plain 3x3 grid typically collapses to 3 ranges (one per cell row or
	// column) instead of 9 separate queries.
	var ranges []Range
	runStart, runEnd := unique[0], unique[0]
	for _, c := range unique[1:] {
		if c == successor(runEnd) {
			runEnd = c
			continue
		}
		ranges = append(ranges, Range{Start: runStart, End: runEnd + "~"})
		runStart, runEnd = c, c
	}
	ranges = append(ranges, Range{Start: runStart, End: runEnd + "~"})

	return ranges
}

// Contains reports whether a stored hash falls inside the range.
func (r Range) Contains(hash string) bool {
	return hash >= r.Start && hash <= r.End
}

// successor returns the next geohash of equal length in lexicographic
// base-32 order, carrying into the parent when the last character is 'z'.
// Returns "" when the input is the last hash of its length ("zzz…"), which
// by construction never merges with anything.
func successor(hash string) string {
	b := []byte(hash)
	for i := len(b) - 1; i >= 0; i-- {
		idx := base32Map[b[i]]
		if idx < len(base32)-1 {
			b[i] = base32[idx+1]
			return string(b)
		}
		b[i] = base32[0]
	}
	return ""
}
