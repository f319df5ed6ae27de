package masters

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/samber/lo"

	"usta-bot/internal/stories/geo"
)

var (
	ErrAlreadyExists = errors.New("master with this phone or telegram id already exists")
	ErrNotFound      = errors.New("master not found")
	ErrInvalidRegion = errors.New("region is not in the catalog")
	ErrInvalidInput  = errors.New("invalid master data")
)

// Service provides business logic for technicians
type Service struct {
	storage Storage
	catalog regionCatalog
	now     func() time.Time
}

func NewService(storage Storage, catalog regionCatalog, now func() time.Time) *Service {
	return &Service{
		storage: storage,
		catalog: catalog,
		now:     now,
	}
}

// Register creates a technician. Storage reports duplicates as ErrAlreadyExists.
func (s *Service) Register(ctx context.Context, m Master) (*Master, error) {
	m.Name = strings.TrimSpace(m.Name)
	m.Phone = strings.TrimSpace(m.Phone)

	if m.Name == "" || m.Phone == "" || m.TelegramID <= 0 {
		return nil, ErrInvalidInput
	}
	if !s.catalog.IsValid(m.Region) {
		return nil, errors.Wrapf(ErrInvalidRegion, "region %q", m.Region)
	}
	if m.Province == "" {
		if p, ok := s.catalog.ProvinceOf(m.Region); ok {
			m.Province = p
		}
	}

	existing, err := s.storage.GetMaster(ctx, GetCriteria{Phone: &m.Phone})
	if err != nil {
		return nil, errors.Wrap(err, "lookup phone")
	}
	if existing != nil {
		return nil, ErrAlreadyExists
	}

	created, err := s.storage.CreateMaster(ctx, m)
	if err != nil {
		return nil, errors.Wrap(err, "create master")
	}
	return created, nil
}

func (s *Service) GetByTelegramID(ctx context.Context, telegramID int64) (*Master, error) {
	m, err := s.storage.GetMaster(ctx, GetCriteria{TelegramID: lo.ToPtr(telegramID)})
	if err != nil {
		return nil, errors.Wrap(err, "get master")
	}
	if m == nil {
		return nil, ErrNotFound
	}
	return m, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Master, error) {
	m, err := s.storage.GetMaster(ctx, GetCriteria{ID: lo.ToPtr(id)})
	if err != nil {
		return nil, errors.Wrap(err, "get master")
	}
	if m == nil {
		return nil, ErrNotFound
	}
	return m, nil
}

func (s *Service) ListByRegion(ctx context.Context, region string, exclude []int64) ([]*Master, error) {
	return s.storage.ListMasters(ctx, ListCriteria{
		Region:             lo.ToPtr(region),
		ExcludeTelegramIDs: exclude,
	})
}

func (s *Service) ListAll(ctx context.Context) ([]*Master, error) {
	return s.storage.ListMasters(ctx, ListCriteria{})
}

// RecordLiveLocation stores the technician's latest shared position.
func (s *Service) RecordLiveLocation(ctx context.Context, telegramID int64, p geo.Point) (*Master, error) {
	m, err := s.storage.UpdateMaster(ctx, GetCriteria{TelegramID: lo.ToPtr(telegramID)}, UpdateParams{
		LastLocation:   lo.ToPtr(p),
		LastLocationAt: lo.ToPtr(s.now()),
	})
	if err != nil {
		return nil, errors.Wrap(err, "update live location")
	}
	if m == nil {
		return nil, ErrNotFound
	}
	return m, nil
}

func (s *Service) SetServiceCenter(ctx context.Context, telegramID int64, p geo.Point) (*Master, error) {
	m, err := s.storage.UpdateMaster(ctx, GetCriteria{TelegramID: lo.ToPtr(telegramID)}, UpdateParams{
		ServiceCenter: lo.ToPtr(p),
	})
	if err != nil {
		return nil, errors.Wrap(err, "update service center")
	}
	if m == nil {
		return nil, ErrNotFound
	}
	return m, nil
}
