package geo

import "math"

const (
	earthRadiusKm = 6371.0

	// RatePerKm is the distance fee per kilometre, in so'm.
	RatePerKm int64 = 3000

	EasyWorkFee      int64 = 100000
	DifficultWorkFee int64 = 150000
)

type Point struct {
	Lat float64
	Lng float64
}

type WorkType string

const (
	WorkTypeEasy      WorkType = "easy"
	WorkTypeDifficult WorkType = "difficult"
)

// DistanceKm returns the great-circle distance between two points.
func DistanceKm(a, b Point) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// RoundKm rounds a distance to two decimals, the precision shown to users and stored on orders.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

func DistanceFee(km float64) int64 {
	if km <= 0 {
		return 0
	}
	return int64(math.Round(km * float64(RatePerKm)))
}

// WorkFee returns the flat fee for the given difficulty. Unknown tags are billed as easy work.
func WorkFee(t WorkType) int64 {
	if t == WorkTypeDifficult {
		return DifficultWorkFee
	}
	return EasyWorkFee
}

func ParseWorkType(s string) (WorkType, bool) {
	switch WorkType(s) {
	case WorkTypeEasy, WorkTypeDifficult:
		return WorkType(s), true
	default:
		return "", false
	}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
