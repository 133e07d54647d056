// Package geo implements geohash encoding/decoding and the disc-cover
// computation used for proximity queries against the report store.
//
// A geohash encodes a latitude/longitude pair into a short base-32 string
// where nearby locations share a common prefix. That prefix property is what
// lets a document store with only a single-field string index answer "what
// is near me": order the collection by geohash and issue range queries.
//
// Precision determines the cell size:
//
//	1 → ~5000 km    4 → ~39 km     7 → ~153 m    10 → ~1.2 m
//	2 → ~1250 km    5 → ~4.9 km    8 → ~19 m     11 → ~15 cm
//	3 → ~156 km     6 → ~1.2 km    9 → ~4.8 m    12 → ~1.9 cm
//
// Reports are stored with a precision-9 hash; queries truncate to whatever
// precision the search radius calls for.
package geo

import (
	"strings"
)

// base32 is the geohash character set. 'a', 'i', 'l', and 'o' are excluded
// to avoid confusion with digits 0/1.
const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// DefaultPrecision is the hash length written on report documents at
// creation time.
const DefaultPrecision = 9

// Lookup tables for neighbor calculation. The geohash bit-interleaving
// alternates between longitude and latitude, so the adjacency permutation
// depends on whether the hash length is even or odd ('e'/'o' keys).
var (
	base32Map = map[byte]int{}
	neighbors = map[string]map[byte]string{
		"n": {'e': "p0r21436x8zb9dcf5h7kjnmqesgutwvy", 'o': "bc01fg45238967deuvhjyznpkmstqrwx"},
		"s": {'e': "14365h7k9dcfesgujnmqp0r2twvyx8zb", 'o': "238967debc01fg45kmstqrwxuvhjyznp"},
		"e": {'e': "bc01fg45238967deuvhjyznpkmstqrwx", 'o': "p0r21436x8zb9dcf5h7kjnmqesgutwvy"},
		"w": {'e': "238967debc01fg45kmstqrwxuvhjyznp", 'o': "14365h7k9dcfesgujnmqp0r2twvyx8zb"},
	}
	borders = map[string]map[byte]string{
		"n": {'e': "prxz", 'o': "bcfguvyz"},
		"s": {'e': "028b", 'o': "0145hjnp"},
		"e": {'e': "bcfguvyz", 'o': "prxz"},
		"w": {'e': "0145hjnp", 'o': "028b"},
	}
)

func init() {
	for i := 0; i < len(base32); i++ {
		base32Map[base32[i]] = i
	}
}

// Encode converts latitude and longitude to a geohash string with the given
// precision. Same inputs always produce the same string, and adjacent cells
// share string prefixes.
//
// The algorithm interleaves bits: alternate between longitude (even bits)
// and latitude (odd bits), bisect the remaining range each step, and emit
// one base-32 character per 5 bits.
func Encode(lat, lng float64, precision int) string {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	if precision > 12 {
		precision = 12
	}

	minLat, maxLat := -90.0, 90.0
	minLng, maxLng := -180.0, 180.0

	var hash strings.Builder
	isEven := true
	bit := 0
	ch := 0

	for hash.Len() < precision {
		if isEven {
			mid := (minLng + maxLng) / 2
			if lng >= mid {
				ch |= 1 << (4 - bit)
				minLng = mid
			} else {
				maxLng = mid
			}
		} else {
			mid := (minLat + maxLat) / 2
			if lat >= mid {
				ch |= 1 << (4 - bit)
				minLat = mid
			} else {
				maxLat = mid
			}
		}
		isEven = !isEven
		bit++
		if bit == 5 {
			hash.WriteByte(base32[ch])
			bit = 0
			ch = 0
		}
	}

	return hash.String()
}

// Decode converts a geohash string back to the center latitude and longitude
// of the encoded cell, by replaying the binary subdivision and returning the
// midpoint of the resulting bounding box.
func Decode(hash string) (lat, lng float64) {
	minLat, maxLat, minLng, maxLng := decodeBounds(hash)
	return (minLat + maxLat) / 2, (minLng + maxLng) / 2
}

// CellBounds returns the lat/lng bounding box of a geohash cell.
func CellBounds(hash string) (minLat, maxLat, minLng, maxLng float64) {
	return decodeBounds(hash)
}

func decodeBounds(hash string) (minLat, maxLat, minLng, maxLng float64) {
	minLat, maxLat = -90.0, 90.0
	minLng, maxLng = -180.0, 180.0
	isEven := true

	for i := 0; i < len(hash); i++ {
		cd, ok := base32Map[hash[i]]
		if !ok {
			continue
		}
		for j := 4; j >= 0; j-- {
			bit := (cd >> j) & 1
			if isEven {
				mid := (minLng + maxLng) / 2
				if bit == 1 {
					minLng = mid
				} else {
					maxLng = mid
				}
			} else {
				mid := (minLat + maxLat) / 2
				if bit == 1 {
					minLat = mid
				} else {
					maxLat = mid
				}
			}
			isEven = !isEven
		}
	}
	return minLat, maxLat, minLng, maxLng
}

// Neighbor returns the geohash of the adjacent cell in the given direction
// ("n", "s", "e", "w"). It inspects the last character via the pre-computed
// permutation tables, recursing into the parent hash when the character sits
// on the border of its parent's cell. East-west adjacency wraps across the
// antimeridian; at the poles the north/south neighbor of an edge cell wraps
// in hash space and is cleaned up by the caller's exact-distance filter.
func Neighbor(hash string, direction string) string {
	if len(hash) == 0 {
		return ""
	}

	hash = strings.ToLower(hash)
	lastChar := hash[len(hash)-1]
	parent := hash[:len(hash)-1]

	var t byte = 'e'
	if len(hash)%2 == 0 {
		t = 'o'
	}

	if strings.ContainsRune(borders[direction][t], rune(lastChar)) && len(parent) > 0 {
		parent = Neighbor(parent, direction)
	}

	idx := strings.IndexByte(neighbors[direction][t], lastChar)
	if idx >= 0 {
		return parent + string(base32[idx])
	}

	return hash
}

// AllNeighbors returns all 8 neighboring geohashes plus the center (9 total),
// forming the 3x3 grid of cells around a point. Diagonals are computed by
// chaining two Neighbor calls. At map edges some entries can coincide; the
// caller is expected to deduplicate.
func AllNeighbors(hash string) []string {
	return []string{
		hash,
		Neighbor(hash, "n"),
		Neighbor(hash, "s"),
		Neighbor(hash, "e"),
		Neighbor(hash, "w"),
		Neighbor(Neighbor(hash, "n"), "e"),
		Neighbor(Neighbor(hash, "n"), "w"),
		Neighbor(Neighbor(hash, "s"), "e"),
		Neighbor(Neighbor(hash, "s"), "w"),
	}
}
