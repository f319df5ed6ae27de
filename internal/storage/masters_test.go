package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"usta-bot/internal/stories/geo"
	"usta-bot/internal/stories/masters"
)

func TestNormalizePhoneVariants(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "with plus returns both variants",
			input:    "+998901234567",
			expected: []string{"+998901234567", "998901234567"},
		},
		{
			name:     "without plus returns both variants",
			input:    "998901234567",
			expected: []string{"+998901234567", "998901234567"},
		},
		{
			name:     "with spaces trimmed",
			input:    " +998901234567 ",
			expected: []string{"+998901234567", "998901234567"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := normalizePhoneVariants(tt.input)

			if len(result) != len(tt.expected) {
				t.Fatalf("normalizePhoneVariants(%q) returned %d variants, want %d", tt.input, len(result), len(tt.expected))
			}

			for i, v := range result {
				if v != tt.expected[i] {
					t.Errorf("normalizePhoneVariants(%q)[%d] = %q, want %q", tt.input, i, v, tt.expected[i])
				}
			}
		})
	}
}

func seedMaster(t *testing.T, s *storageImpl, tg int64, phone, region string) *masters.Master {
	t.Helper()
	m, err := s.CreateMaster(context.Background(), masters.Master{
		TelegramID: tg,
		Name:       "Usta",
		Phone:      phone,
		Province:   "Toshkent viloyati",
		Region:     region,
	})
	if err != nil {
		t.Fatalf("CreateMaster: %v", err)
	}
	return m
}

func TestCreateMasterDuplicates(t *testing.T) {
	s := newTestStorage(t)
	seedMaster(t, s, 100, "+998901111111", "Chirchiq")

	tests := []struct {
		name  string
		tg    int64
		phone string
	}{
		{name: "same telegram id", tg: 100, phone: "+998902222222"},
		{name: "same phone", tg: 101, phone: "+998901111111"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateMaster(context.Background(), masters.Master{
				TelegramID: tt.tg, Name: "X", Phone: tt.phone, Region: "Chirchiq",
			})
			if !errors.Is(err, masters.ErrAlreadyExists) {
				t.Errorf("err = %v, want ErrAlreadyExists", err)
			}
		})
	}
}

func TestGetMasterByPhoneVariant(t *testing.T) {
	s := newTestStorage(t)
	created := seedMaster(t, s, 100, "+998901111111", "Chirchiq")

	got, err := s.GetMaster(context.Background(), masters.GetCriteria{Phone: strPtr("998901111111")})
	if err != nil {
		t.Fatalf("GetMaster: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Fatalf("got %+v, want master %d", got, created.ID)
	}

	missing, err := s.GetMaster(context.Background(), masters.GetCriteria{Phone: strPtr("+998909999999")})
	if err != nil || missing != nil {
		t.Errorf("missing = %+v, err = %v", missing, err)
	}
}

func TestUpdateMasterLocation(t *testing.T) {
	s := newTestStorage(t)
	seedMaster(t, s, 100, "+998901111111", "Chirchiq")

	tg := int64(100)
	at := testNow.Add(-time.Minute)
	updated, err := s.UpdateMaster(context.Background(), masters.GetCriteria{TelegramID: &tg}, masters.UpdateParams{
		LastLocation:   &geo.Point{Lat: 41.3, Lng: 69.2},
		LastLocationAt: &at,
	})
	if err != nil {
		t.Fatalf("UpdateMaster: %v", err)
	}
	if updated.LastLocation == nil || updated.LastLocation.Lat != 41.3 {
		t.Errorf("last location = %+v", updated.LastLocation)
	}
	if updated.LastLocationAt == nil || !updated.LastLocationAt.Equal(at) {
		t.Errorf("last location at = %v, want %v", updated.LastLocationAt, at)
	}
	if updated.ServiceCenter != nil {
		t.Errorf("service center must stay empty, got %+v", updated.ServiceCenter)
	}

	unknown := int64(999)
	none, err := s.UpdateMaster(context.Background(), masters.GetCriteria{TelegramID: &unknown}, masters.UpdateParams{
		ServiceCenter: &geo.Point{Lat: 1, Lng: 1},
	})
	if err != nil || none != nil {
		t.Errorf("unknown master: got %+v, err %v", none, err)
	}
}

func TestListMastersByRegionWithExclusions(t *testing.T) {
	s := newTestStorage(t)
	seedMaster(t, s, 1, "+998900000001", "Chirchiq")
	seedMaster(t, s, 2, "+998900000002", "Chirchiq")
	seedMaster(t, s, 3, "+998900000003", "Chirchiq")
	seedMaster(t, s, 4, "+998900000004", "Termiz")

	region := "Chirchiq"
	list, err := s.ListMasters(context.Background(), masters.ListCriteria{
		Region:             &region,
		ExcludeTelegramIDs: []int64{2},
	})
	if err != nil {
		t.Fatalf("ListMasters: %v", err)
	}

	if len(list) != 2 || list[0].TelegramID != 1 || list[1].TelegramID != 3 {
		t.Errorf("got %d masters: %+v", len(list), list)
	}

	all, err := s.ListMasters(context.Background(), masters.ListCriteria{})
	if err != nil {
		t.Fatalf("ListMasters: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("all = %d, want 4", len(all))
	}
}
