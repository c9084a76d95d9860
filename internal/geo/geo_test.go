package geo

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/mmcloughlin/geohash"
)

func TestSampleNear_WithinRadius(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	centerLat, centerLon := 40.7128, -74.0060
	maxKm := 15.0

	for i := 0; i < 1000; i++ {
		lat, lon := SampleNear(rng, centerLat, centerLon, maxKm)
		// Small tolerance for the rounding and planar approximation.
		if d := DistanceKm(centerLat, centerLon, lat, lon); d > maxKm*1.01 {
			t.Fatalf("sample %d at %.6f,%.6f is %.2f km out, beyond %.2f km", i, lat, lon, d, maxKm)
		}
	}
}

func TestSampleNear_Rounded(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	lat, lon := SampleNear(rng, 40.7128, -74.0060, 15.0)

	if lat != math.Round(lat*1e6)/1e6 {
		t.Errorf("latitude not rounded to 6 decimals: %v", lat)
	}
	if lon != math.Round(lon*1e6)/1e6 {
		t.Errorf("longitude not rounded to 6 decimals: %v", lon)
	}
}

func TestJitter_StaysClose(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	lat, lon := 40.7128, -74.0060

	for i := 0; i < 100; i++ {
		nlat, nlon := Jitter(rng, lat, lon, 40)
		// 40 m on each axis is at most ~57 m diagonally.
		if d := DistanceKm(lat, lon, nlat, nlon); d > 0.06 {
			t.Fatalf("jitter moved %.4f km, expected tens of meters", d)
		}
	}
}

func TestBucketKey_Deterministic(t *testing.T) {
	a := BucketKey(40.7128, -74.0060, 6)
	b := BucketKey(40.7128, -74.0060, 6)
	if a != b {
		t.Errorf("equal coordinates produced different keys: %q vs %q", a, b)
	}
	if len(a) != 6 {
		t.Errorf("expected key of length 6, got %q", a)
	}
}

func TestBucketKey_PrecisionRefines(t *testing.T) {
	lat, lon := 40.7128, -74.0060
	for p := uint(1); p < 8; p++ {
		coarse := BucketKey(lat, lon, p)
		fine := BucketKey(lat, lon, p+1)
		if !strings.HasPrefix(fine, coarse) {
			t.Errorf("precision %d key %q is not a prefix of precision %d key %q", p, coarse, p+1, fine)
		}
	}
}

func TestBucketKey_NearbyPointsCollide(t *testing.T) {
	// Points a few meters from a cell's center stay in that cell.
	key := BucketKey(40.7128, -74.0060, 6)
	box := geohash.BoundingBox(key)
	lat, lon := box.Center()

	if got := BucketKey(lat+0.00001, lon+0.00001, 6); got != key {
		t.Errorf("point near cell center landed in different bucket: %q vs %q", got, key)
	}
	if got := BucketKey(lat-0.00001, lon-0.00001, 6); got != key {
		t.Errorf("point near cell center landed in different bucket: %q vs %q", got, key)
	}
}
