package catalog

import "context"

type Repository interface {
	GetPackageByID(ctx context.Context, id int) (*Package, error)
	GetAllPackages(ctx context.Context) ([]Package, error)
}
