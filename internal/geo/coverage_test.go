package geo

import (
	"math"
	"math/rand"
	"testing"
)

func containedInAny(ranges []Range, hash string) bool {
	for _, r := range ranges {
		if r.Contains(hash) {
			return true
		}
	}
	return false
}

func TestCoverRadiusContainsCenter(t *testing.T) {
	ranges := CoverRadius(-26.2041, 28.0473, 3000)
	if len(ranges) == 0 {
		t.Fatal("expected at least one range")
	}

	hash := Encode(-26.2041, 28.0473, DefaultPrecision)
	if !containedInAny(ranges, hash) {
		t.Errorf("center hash %s not contained in any range", hash)
	}
}

// TestCoverRadiusNoFalseNegatives is the core superset property: any point
// actually inside the disc must land in at least one returned range. Random
// centers and offsets; points are kept inside 90% of the radius to stay
// clear of cell-boundary rounding at exactly the radius.
func TestCoverRadiusNoFalseNegatives(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	const metersPerDegreeLat = 111195.0

	for i := 0; i < 500; i++ {
		centerLat := rng.Float64()*160 - 80 // ±80°, clear of the polar caps
		centerLng := rng.Float64()*360 - 180
		radiusM := 100 + rng.Float64()*49900 // 100m .. 50km

		ranges := CoverRadius(centerLat, centerLng, radiusM)

		// A random point within 0.9 * radius of the center.
		bearing := rng.Float64() * 2 * math.Pi
		distM := rng.Float64() * radiusM * 0.9
		pointLat := centerLat + distM*math.Cos(bearing)/metersPerDegreeLat
		pointLng := centerLng + distM*math.Sin(bearing)/(metersPerDegreeLat*math.Cos(centerLat*math.Pi/180))
		if pointLng > 180 {
			pointLng -= 360
		}
		if pointLng < -180 {
			pointLng += 360
		}

		hash := Encode(pointLat, pointLng, DefaultPrecision)
		if !containedInAny(ranges, hash) {
			t.Fatalf("iteration %d: point (%f, %f) at %.0fm of (%f, %f) radius %.0fm: hash %s in no range %v",
				i, pointLat, pointLng, distM, centerLat, centerLng, radiusM, hash, ranges)
		}
	}
}

func TestCoverRadiusSubCellRadius(t *testing.T) {
	// A radius smaller than one stored-precision cell must not push the
	// cover to longer prefixes: stored hashes sort before their own longer
	// children, so such a cover would miss a report at the query center.
	lat, lng := -26.2041, 28.0473
	ranges := CoverRadius(lat, lng, 0.5)

	stored := Encode(lat, lng, DefaultPrecision)
	if !containedInAny(ranges, stored) {
		t.Errorf("stored hash %s not covered by %v for a sub-cell radius", stored, ranges)
	}
	for _, r := range ranges {
		if len(r.Start) > DefaultPrecision {
			t.Errorf("range start %s is longer than the stored precision", r.Start)
		}
	}
}

func TestCoverRadiusAntimeridian(t *testing.T) {
	// A disc straddling lng ±180 must come back as multiple disjoint
	// ranges, covering points on both sides.
	ranges := CoverRadius(0, 179.9999, 5000)
	if len(ranges) < 2 {
		t.Fatalf("expected disjoint ranges across the antimeridian, got %v", ranges)
	}

	east := Encode(0, 179.9999, DefaultPrecision)
	west := Encode(0, -179.9999, DefaultPrecision)
	if !containedInAny(ranges, east) {
		t.Errorf("eastern-side hash %s not covered", east)
	}
	if !containedInAny(ranges, west) {
		t.Errorf("western-side hash %s not covered", west)
	}
}

func TestCoverRadiusMergesAdjacentCells(t *testing.T) {
	// A 3x3 grid has at most 9 cells; merging base32-consecutive runs must
	// never produce more ranges than cells, and typically far fewer.
	ranges := CoverRadius(-26.2041, 28.0473, 3000)
	if len(ranges) > 9 {
		t.Errorf("expected at most 9 ranges, got %d", len(ranges))
	}
	for _, r := range ranges {
		if r.Start > r.End {
			t.Errorf("range %v has start after end", r)
		}
	}
}

func TestCoverRadiusPole(t *testing.T) {
	// Near the pole the neighbor grid wraps in hash space; the call must
	// still return usable ranges covering the center.
	ranges := CoverRadius(89.9, 45, 1000)
	if len(ranges) == 0 {
		t.Fatal("expected ranges near the pole")
	}
	hash := Encode(89.9, 45, DefaultPrecision)
	if !containedInAny(ranges, hash) {
		t.Errorf("polar center hash %s not covered", hash)
	}
}

func TestSuccessor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"9q8yyj", "9q8yyk"},
		{"9q8yyz", "9q8yz0"},
		{"zz", ""},
		{"09", "0b"},
	}
	for _, tt := range tests {
		if got := successor(tt.in); got != tt.want {
			t.Errorf("successor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrecisionForRadius(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		radiusM float64
		want    int
	}{
		{"3km at mid latitude", -26.2, 3000, 5},
		{"1km at mid latitude", -26.2, 1000, 5},
		{"100m at mid latitude", -26.2, 100, 7},
		{"sub-cell radius clamps to stored precision", -26.2, 0.5, DefaultPrecision},
		{"3km near the pole picks coarser cells", 89.0, 3000, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := precisionForRadius(tt.lat, tt.radiusM); got != tt.want {
				t.Errorf("precisionForRadius(%v, %v) = %d, want %d", tt.lat, tt.radiusM, got, tt.want)
			}
		})
	}
}
