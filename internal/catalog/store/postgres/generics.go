package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"sdgcatalog/internal/catalog/models"
	id "sdgcatalog/pkg/domain"
)

// Generics is the Postgres GenericStore.
type Generics struct {
	db *sql.DB
}

func NewGenerics(db *sql.DB) *Generics {
	return &Generics{db: db}
}

const genericColumns = `id, upn, upn_label, target_audience, status, upn_removed, end_date, created_at, updated_at`

func scanGeneric(row interface{ Scan(...any) error }) (*models.GenericProduct, error) {
	var g models.GenericProduct
	var gid uuid.UUID
	var endDate sql.NullTime
	if err := row.Scan(&gid, &g.UPN, &g.UPNLabel, &g.TargetAudience, &g.Status,
		&g.UPNRemoved, &endDate, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	g.ID = id.GenericProductID(gid)
	if endDate.Valid {
		d := endDate.Time
		g.EndDate = &d
	}
	return &g, nil
}

func (s *Generics) GenericProduct(ctx context.Context, genericID id.GenericProductID) (*models.GenericProduct, error) {
	row := execer(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+genericColumns+` FROM generic_products WHERE id = $1`, uuid.UUID(genericID))
	g, err := scanGeneric(row)
	if err != nil {
		return nil, translateErr(err)
	}
	return g, nil
}

func (s *Generics) AllGenericProducts(ctx context.Context) ([]*models.GenericProduct, error) {
	rows, err := execer(ctx, s.db).QueryContext(ctx,
		`SELECT `+genericColumns+` FROM generic_products ORDER BY upn, target_audience`)
	if err != nil {
		return nil, fmt.Errorf("query generic products: %w", err)
	}
	defer rows.Close()

	var out []*models.GenericProduct
	for rows.Next() {
		g, err := scanGeneric(rows)
		if err != nil {
			return nil, fmt.Errorf("scan generic product: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Generics) UpdateGenericProduct(ctx context.Context, generic *models.GenericProduct) error {
	var endDate sql.NullTime
	if generic.EndDate != nil {
		endDate = sql.NullTime{Time: *generic.EndDate, Valid: true}
	}
	res, err := execer(ctx, s.db).ExecContext(ctx, `
		UPDATE generic_products
		SET status = $2, upn_removed = $3, end_date = $4, updated_at = $5
		WHERE id = $1`,
		uuid.UUID(generic.ID), generic.Status, generic.UPNRemoved, endDate, generic.UpdatedAt)
	if err != nil {
		return translateErr(err)
	}
	return requireRow(res)
}

func (s *Generics) HasLocalizedText(ctx context.Context, genericID id.GenericProductID) (bool, error) {
	var exists bool
	err := execer(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM generic_texts WHERE generic_product_id = $1 AND title <> '')`,
		uuid.UUID(genericID)).Scan(&exists)
	if err != nil {
		return false, translateErr(err)
	}
	return exists, nil
}
