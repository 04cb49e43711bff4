package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"sdgcatalog/internal/catalog/models"
	id "sdgcatalog/pkg/domain"
)

// Products is the Postgres ProductStore.
type Products struct {
	db *sql.DB
}

func NewProducts(db *sql.DB) *Products {
	return &Products{db: db}
}

const productColumns = `id, generic_product_id, catalog_id, reference_product_id,
	product_aanwezig, product_valt_onder, authorized_organization_id,
	auto_press_through, auto_press_through_date, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	var p models.Product
	var pid, gid, cid, aid uuid.UUID
	var refID, fallsID uuid.NullUUID
	var available sql.NullBool
	var ptDate sql.NullTime
	if err := row.Scan(&pid, &gid, &cid, &refID, &available, &fallsID, &aid,
		&p.AutoPressThrough, &ptDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ID = id.ProductID(pid)
	p.GenericProductID = id.GenericProductID(gid)
	p.CatalogID = id.CatalogID(cid)
	p.AuthorizedOrganizationID = id.OrganizationID(aid)
	if refID.Valid {
		ref := id.ProductID(refID.UUID)
		p.ReferenceProductID = &ref
	}
	if fallsID.Valid {
		f := id.ProductID(fallsID.UUID)
		p.FallsUnderID = &f
	}
	if available.Valid {
		a := available.Bool
		p.Available = &a
	}
	if ptDate.Valid {
		d := ptDate.Time
		p.AutoPressThroughDate = &d
	}
	return &p, nil
}

func (s *Products) queryProducts(ctx context.Context, where string, args ...any) ([]*models.Product, error) {
	rows, err := execer(ctx, s.db).QueryContext(ctx,
		`SELECT `+productColumns+` FROM products `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Products) Product(ctx context.Context, productID id.ProductID) (*models.Product, error) {
	row := execer(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, uuid.UUID(productID))
	p, err := scanProduct(row)
	if err != nil {
		return nil, translateErr(err)
	}
	return p, nil
}

func productArgs(p *models.Product) []any {
	var refID, fallsID uuid.NullUUID
	if p.ReferenceProductID != nil {
		refID = uuid.NullUUID{UUID: uuid.UUID(*p.ReferenceProductID), Valid: true}
	}
	if p.FallsUnderID != nil {
		fallsID = uuid.NullUUID{UUID: uuid.UUID(*p.FallsUnderID), Valid: true}
	}
	var available sql.NullBool
	if p.Available != nil {
		available = sql.NullBool{Bool: *p.Available, Valid: true}
	}
	var ptDate sql.NullTime
	if p.AutoPressThroughDate != nil {
		ptDate = sql.NullTime{Time: *p.AutoPressThroughDate, Valid: true}
	}
	return []any{
		uuid.UUID(p.ID), uuid.UUID(p.GenericProductID), uuid.UUID(p.CatalogID), refID,
		available, fallsID, uuid.UUID(p.AuthorizedOrganizationID),
		p.AutoPressThrough, ptDate, p.CreatedAt, p.UpdatedAt,
	}
}

func (s *Products) CreateProduct(ctx context.Context, product *models.Product) error {
	_, err := execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO products (id, generic_product_id, catalog_id, reference_product_id,
			product_aanwezig, product_valt_onder, authorized_organization_id,
			auto_press_through, auto_press_through_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		productArgs(product)...)
	return translateErr(err)
}

func (s *Products) UpdateProduct(ctx context.Context, product *models.Product) error {
	args := productArgs(product)
	res, err := execer(ctx, s.db).ExecContext(ctx, `
		UPDATE products SET
			product_aanwezig = $5, product_valt_onder = $6,
			authorized_organization_id = $7,
			auto_press_through = $8, auto_press_through_date = $9,
			updated_at = $11
		WHERE id = $1`, args...)
	if err != nil {
		return translateErr(err)
	}
	return requireRow(res)
}

func (s *Products) ProductsInCatalog(ctx context.Context, catalogID id.CatalogID) ([]*models.Product, error) {
	return s.queryProducts(ctx, `WHERE catalog_id = $1`, uuid.UUID(catalogID))
}

func (s *Products) SpecificProductsOf(ctx context.Context, refID id.ProductID) ([]*models.Product, error) {
	return s.queryProducts(ctx, `WHERE reference_product_id = $1`, uuid.UUID(refID))
}

func (s *Products) ShadowProduct(ctx context.Context, catalogID id.CatalogID, genericID id.GenericProductID) (*models.Product, error) {
	row := execer(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE catalog_id = $1 AND generic_product_id = $2`,
		uuid.UUID(catalogID), uuid.UUID(genericID))
	p, err := scanProduct(row)
	if err != nil {
		return nil, translateErr(err)
	}
	return p, nil
}

func (s *Products) ReferenceProductsForGeneric(ctx context.Context, genericID id.GenericProductID) ([]*models.Product, error) {
	return s.queryProducts(ctx,
		`WHERE generic_product_id = $1 AND reference_product_id IS NULL`, uuid.UUID(genericID))
}

func (s *Products) ReferenceProductsDue(ctx context.Context, today time.Time) ([]*models.Product, error) {
	return s.queryProducts(ctx, `
		WHERE reference_product_id IS NULL
		  AND auto_press_through
		  AND auto_press_through_date <= $1`, models.Day(today))
}

func (s *Products) SpecificProductsDue(ctx context.Context, refID id.ProductID, today time.Time) ([]*models.Product, error) {
	return s.queryProducts(ctx, `
		WHERE reference_product_id = $1
		  AND auto_press_through
		  AND auto_press_through_date <= $2`, uuid.UUID(refID), models.Day(today))
}

// SetAvailabilityBulk is a raw set-based update: no per-row reads, no
// derived-text side effects. The propagator depends on that ordering.
func (s *Products) SetAvailabilityBulk(ctx context.Context, productIDs []id.ProductID, available *bool) error {
	if len(productIDs) == 0 {
		return nil
	}
	var value sql.NullBool
	if available != nil {
		value = sql.NullBool{Bool: *available, Valid: true}
	}
	_, err := execer(ctx, s.db).ExecContext(ctx,
		`UPDATE products SET product_aanwezig = $1, updated_at = now() WHERE id = ANY($2)`,
		value, pq.Array(uuidSlice(productIDs)))
	return translateErr(err)
}

func (s *Products) ClearPressThroughBulk(ctx context.Context, productIDs []id.ProductID) error {
	if len(productIDs) == 0 {
		return nil
	}
	_, err := execer(ctx, s.db).ExecContext(ctx, `
		UPDATE products
		SET auto_press_through = false, auto_press_through_date = NULL, updated_at = now()
		WHERE id = ANY($1)`,
		pq.Array(uuidSlice(productIDs)))
	return translateErr(err)
}

func uuidSlice(ids []id.ProductID) []uuid.UUID {
	out := make([]uuid.UUID, len(ids))
	for i, pid := range ids {
		out[i] = uuid.UUID(pid)
	}
	return out
}
