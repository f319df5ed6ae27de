package masters

import "context"

type (
	Storage interface {
		CreateMaster(ctx context.Context, master Master) (*Master, error)
		GetMaster(ctx context.Context, criteria GetCriteria) (*Master, error)
		UpdateMaster(ctx context.Context, criteria GetCriteria, params UpdateParams) (*Master, error)
		ListMasters(ctx context.Context, criteria ListCriteria) ([]*Master, error)
	}

	regionCatalog interface {
		IsValid(region string) bool
		ProvinceOf(district string) (string, bool)
	}
)
