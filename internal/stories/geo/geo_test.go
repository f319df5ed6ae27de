package geo

import (
	"math"
	"testing"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Point
		expected float64
		delta    float64
	}{
		{
			name:     "same point is zero",
			a:        Point{Lat: 41.311081, Lng: 69.240562},
			b:        Point{Lat: 41.311081, Lng: 69.240562},
			expected: 0,
			delta:    1e-9,
		},
		{
			name:     "one degree of latitude",
			a:        Point{Lat: 0, Lng: 0},
			b:        Point{Lat: 1, Lng: 0},
			expected: 111.19,
			delta:    0.01,
		},
		{
			name:     "tashkent to samarkand",
			a:        Point{Lat: 41.2995, Lng: 69.2401},
			b:        Point{Lat: 39.6542, Lng: 66.9597},
			expected: 266,
			delta:    5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.a, tt.b)
			if math.Abs(got-tt.expected) > tt.delta {
				t.Errorf("DistanceKm(%v, %v) = %f, want %f ± %f", tt.a, tt.b, got, tt.expected, tt.delta)
			}
		})
	}
}

func TestDistanceKmSymmetric(t *testing.T) {
	points := []Point{
		{Lat: 41.5, Lng: 69.6},
		{Lat: 37.22, Lng: 67.27},
		{Lat: -33.86, Lng: 151.2},
		{Lat: 0, Lng: 179.9},
		{Lat: 0, Lng: -179.9},
	}

	for _, a := range points {
		for _, b := range points {
			ab := DistanceKm(a, b)
			ba := DistanceKm(b, a)
			if math.Abs(ab-ba) > 1e-9 {
				t.Errorf("DistanceKm not symmetric for %v, %v: %f != %f", a, b, ab, ba)
			}
		}
		if d := DistanceKm(a, a); d != 0 {
			t.Errorf("DistanceKm(%v, %v) = %f, want 0", a, a, d)
		}
	}
}

func TestDistanceFee(t *testing.T) {
	tests := []struct {
		name     string
		km       float64
		expected int64
	}{
		{name: "two km", km: 2, expected: 6000},
		{name: "zero", km: 0, expected: 0},
		{name: "negative is zero", km: -3, expected: 0},
		{name: "fractional rounds", km: 1.25, expected: 3750},
		{name: "sub-unit rounding", km: 0.0004, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DistanceFee(tt.km); got != tt.expected {
				t.Errorf("DistanceFee(%f) = %d, want %d", tt.km, got, tt.expected)
			}
		})
	}
}

func TestDistanceFeeMonotonic(t *testing.T) {
	prev := DistanceFee(0)
	for km := 0.0; km < 50; km += 0.37 {
		fee := DistanceFee(km)
		if fee < prev {
			t.Fatalf("DistanceFee decreased at %f km: %d < %d", km, fee, prev)
		}
		prev = fee
	}
}

func TestWorkFee(t *testing.T) {
	tests := []struct {
		name     string
		workType WorkType
		expected int64
	}{
		{name: "easy", workType: WorkTypeEasy, expected: 100000},
		{name: "difficult", workType: WorkTypeDifficult, expected: 150000},
		{name: "empty defaults to easy", workType: "", expected: 100000},
		{name: "unknown defaults to easy", workType: "medium", expected: 100000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WorkFee(tt.workType); got != tt.expected {
				t.Errorf("WorkFee(%q) = %d, want %d", tt.workType, got, tt.expected)
			}
		})
	}

	if WorkFee(WorkTypeDifficult) <= WorkFee(WorkTypeEasy) {
		t.Error("difficult work must cost more than easy work")
	}
}

func TestRoundKm(t *testing.T) {
	if got := RoundKm(2.345678); got != 2.35 {
		t.Errorf("RoundKm(2.345678) = %f, want 2.35", got)
	}
}
