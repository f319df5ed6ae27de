package warehouse

import "time"

// Item is one stock row. A nil Region is fallback stock available to every region.
type Item struct {
	ID          int64
	Name        string
	Region      *string
	Quantity    int
	Price       int64
	Category    *string
	Subcategory *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type GetCriteria struct {
	ID *int64
}

// FindCriteria matches a product by name for a region, preferring the
// regional row over the region-less one.
type FindCriteria struct {
	Name   string
	Region *string
}

type ListCriteria struct {
	// Region limits rows to the region plus region-less stock. Nil lists everything.
	Region      *string
	Category    *string
	Subcategory *string
	MinQuantity int
}

// ImportRow is one reconciled spreadsheet line.
type ImportRow struct {
	Name        string
	Region      *string
	Category    *string
	Subcategory *string
	Quantity    int
}

// UpsertOutcome tells whether an upsert inserted a new row or touched an existing one.
type UpsertOutcome int

const (
	UpsertInserted UpsertOutcome = iota + 1
	UpsertUpdated
)

// PageSize is the number of products shown per keyboard page.
const PageSize = 8

// Page slices items for menu paging. The page is clamped to the valid range.
func Page(items []*Item, page int) (slice []*Item, current, total int) {
	if len(items) == 0 {
		return nil, 0, 0
	}

	total = (len(items) + PageSize - 1) / PageSize
	current = max(0, min(page, total-1))

	start := current * PageSize
	end := min(start+PageSize, len(items))
	return items[start:end], current, total
}
