package masters

import (
	"time"

	"usta-bot/internal/stories/geo"
)

// Master is a field technician scoped to one district.
type Master struct {
	ID             int64
	TelegramID     int64
	Name           string
	Phone          string
	Province       string
	Region         string
	ServiceCenter  *geo.Point
	LastLocation   *geo.Point
	LastLocationAt *time.Time
	CreatedAt      time.Time
}

// ReferenceKind tells which coordinate a distance was measured from.
type ReferenceKind string

const (
	ReferenceServiceCenter ReferenceKind = "service_center"
	ReferenceLive          ReferenceKind = "live"
)

// ReferencePoint picks the service center when one is assigned, else a live position
// no older than freshness.
func (m *Master) ReferencePoint(now time.Time, freshness time.Duration) (geo.Point, ReferenceKind, bool) {
	if m.ServiceCenter != nil {
		return *m.ServiceCenter, ReferenceServiceCenter, true
	}
	if m.HasFreshLocation(now, freshness) {
		return *m.LastLocation, ReferenceLive, true
	}
	return geo.Point{}, "", false
}

func (m *Master) HasFreshLocation(now time.Time, freshness time.Duration) bool {
	if m.LastLocation == nil || m.LastLocationAt == nil {
		return false
	}
	return now.Sub(*m.LastLocationAt) <= freshness
}

// GetCriteria selects a single technician.
type GetCriteria struct {
	ID         *int64
	TelegramID *int64
	// Phone matches with and without the leading "+".
	Phone *string
}

type ListCriteria struct {
	Region             *string
	ExcludeTelegramIDs []int64
	Limit              int
}

type UpdateParams struct {
	ServiceCenter  *geo.Point
	LastLocation   *geo.Point
	LastLocationAt *time.Time
}
