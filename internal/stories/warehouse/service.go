package warehouse

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/samber/lo"
)

var (
	ErrAlreadyExists = errors.New("product already exists in this region")
	ErrInvalidInput  = errors.New("invalid product data")
	ErrNotFound      = errors.New("product not found")
	// ErrInsufficientStock is returned when a decrement would drive a row negative.
	ErrInsufficientStock = errors.New("not enough units in stock")
)

type Service struct {
	storage Storage
}

func NewService(storage Storage) *Service {
	return &Service{storage: storage}
}

// FindStock returns the regional row for the product, else the region-less row.
// A nil item means neither exists.
func (s *Service) FindStock(ctx context.Context, name string, region *string) (*Item, error) {
	item, err := s.storage.FindItem(ctx, FindCriteria{
		Name:   strings.TrimSpace(name),
		Region: normalizeOptional(region),
	})
	if err != nil {
		return nil, errors.Wrap(err, "find stock")
	}
	return item, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Item, error) {
	item, err := s.storage.GetItem(ctx, GetCriteria{ID: lo.ToPtr(id)})
	if err != nil {
		return nil, errors.Wrap(err, "get item")
	}
	if item == nil {
		return nil, ErrNotFound
	}
	return item, nil
}

// Decrement subtracts qty. A row holding fewer units is left untouched and
// ErrInsufficientStock is returned. Order creation does not call it: the order
// insert runs its own conditional decrement in the same transaction.
func (s *Service) Decrement(ctx context.Context, id int64, qty int) error {
	if qty <= 0 {
		return ErrInvalidInput
	}
	if err := s.storage.DecrementItem(ctx, id, qty); err != nil {
		return errors.Wrap(err, "decrement stock")
	}
	return nil
}

// UpsertFromImport adds deltaQty to the (name, region) row and fills category and
// subcategory only where they were empty. A missing row is created.
func (s *Service) UpsertFromImport(ctx context.Context, row ImportRow) (UpsertOutcome, error) {
	row.Name = strings.TrimSpace(row.Name)
	if row.Name == "" {
		return 0, ErrInvalidInput
	}
	row.Region = normalizeOptional(row.Region)
	row.Category = normalizeOptional(row.Category)
	row.Subcategory = normalizeOptional(row.Subcategory)

	outcome, err := s.storage.UpsertImportRow(ctx, row)
	if err != nil {
		return 0, errors.Wrap(err, "upsert import row")
	}
	return outcome, nil
}

// ListByRegionAndCategory returns rows for the region (plus region-less stock),
// sorted by name. Paging is left to the caller.
func (s *Service) ListByRegionAndCategory(ctx context.Context, region *string, category, subcategory *string, minQty int) ([]*Item, error) {
	if minQty <= 0 {
		minQty = 1
	}
	items, err := s.storage.ListItems(ctx, ListCriteria{
		Region:      normalizeOptional(region),
		Category:    normalizeOptional(category),
		Subcategory: normalizeOptional(subcategory),
		MinQuantity: minQty,
	})
	if err != nil {
		return nil, errors.Wrap(err, "list stock")
	}
	return items, nil
}

// ListAll lists every row including empty ones, ordered by region and name.
func (s *Service) ListAll(ctx context.Context) ([]*Item, error) {
	return s.storage.ListItems(ctx, ListCriteria{})
}

func (s *Service) ListForRegion(ctx context.Context, region string) ([]*Item, error) {
	return s.storage.ListItems(ctx, ListCriteria{Region: lo.ToPtr(region)})
}

// AddProduct inserts a new row. A duplicate (name, region) is ErrAlreadyExists.
func (s *Service) AddProduct(ctx context.Context, item Item) (*Item, error) {
	if err := validate(&item); err != nil {
		return nil, err
	}

	created, err := s.storage.CreateItem(ctx, item)
	if err != nil {
		return nil, errors.Wrap(err, "create item")
	}
	return created, nil
}

// Restock adds quantity to the technician's regional row, replacing the price and
// filling an empty category. A missing row is created.
func (s *Service) Restock(ctx context.Context, item Item) (*Item, UpsertOutcome, error) {
	if err := validate(&item); err != nil {
		return nil, 0, err
	}
	if item.Region == nil {
		return nil, 0, errors.Wrap(ErrInvalidInput, "restock needs a region")
	}

	updated, outcome, err := s.storage.RestockItem(ctx, item)
	if err != nil {
		return nil, 0, errors.Wrap(err, "restock item")
	}
	return updated, outcome, nil
}

func validate(item *Item) error {
	item.Name = strings.TrimSpace(item.Name)
	item.Region = normalizeOptional(item.Region)
	item.Category = normalizeOptional(item.Category)
	item.Subcategory = normalizeOptional(item.Subcategory)

	if item.Name == "" || item.Quantity < 0 || item.Price < 0 {
		return ErrInvalidInput
	}
	return nil
}

// normalizeOptional trims an optional string and maps blank to nil.
func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
