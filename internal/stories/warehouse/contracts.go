package warehouse

import "context"

type (
	Storage interface {
		CreateItem(ctx context.Context, item Item) (*Item, error)
		GetItem(ctx context.Context, criteria GetCriteria) (*Item, error)
		FindItem(ctx context.Context, criteria FindCriteria) (*Item, error)
		ListItems(ctx context.Context, criteria ListCriteria) ([]*Item, error)
		DecrementItem(ctx context.Context, id int64, qty int) error
		UpsertImportRow(ctx context.Context, row ImportRow) (UpsertOutcome, error)
		RestockItem(ctx context.Context, item Item) (*Item, UpsertOutcome, error)
	}
)
