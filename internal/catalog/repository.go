package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrPackageNotFound = errors.New("package not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetPackageByID(ctx context.Context, id int) (*Package, error) {
	query := `
		SELECT id, name, price, class_count, validity_days, created_at
		FROM packages
		WHERE id = $1
	`

	var pkg Package
	err := r.db.GetContext(ctx, &pkg, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}

	links := []int{}
	err = r.db.SelectContext(ctx, &links, `
		SELECT class_template_id
		FROM package_class_links
		WHERE package_id = $1
		ORDER BY class_template_id
	`, id)
	if err != nil {
		return nil, err
	}
	pkg.ClassTemplateIDs = links

	return &pkg, nil
}

func (r *repository) GetAllPackages(ctx context.Context) ([]Package, error) {
	query := `
		SELECT id, name, price, class_count, validity_days, created_at
		FROM packages
		ORDER BY price
	`

	var packages []Package
	err := r.db.SelectContext(ctx, &packages, query)
	if err != nil {
		return nil, err
	}

	return packages, nil
}
