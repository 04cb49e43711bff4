package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"sdgcatalog/internal/catalog/models"
	id "sdgcatalog/pkg/domain"
)

// Catalogs is the Postgres CatalogStore.
type Catalogs struct {
	db *sql.DB
}

func NewCatalogs(db *sql.DB) *Catalogs {
	return &Catalogs{db: db}
}

const catalogColumns = `id, organization_id, reference_catalog_id, name, domain, version, created_at`

func scanCatalog(row interface{ Scan(...any) error }) (*models.Catalog, error) {
	var c models.Catalog
	var cid, oid uuid.UUID
	var refID uuid.NullUUID
	if err := row.Scan(&cid, &oid, &refID, &c.Name, &c.Domain, &c.Version, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.ID = id.CatalogID(cid)
	c.OrganizationID = id.OrganizationID(oid)
	if refID.Valid {
		ref := id.CatalogID(refID.UUID)
		c.ReferenceCatalogID = &ref
	}
	return &c, nil
}

func (s *Catalogs) Catalog(ctx context.Context, catalogID id.CatalogID) (*models.Catalog, error) {
	row := execer(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+catalogColumns+` FROM catalogs WHERE id = $1`, uuid.UUID(catalogID))
	c, err := scanCatalog(row)
	if err != nil {
		return nil, translateErr(err)
	}
	return c, nil
}

func (s *Catalogs) ReferenceCatalogs(ctx context.Context) ([]*models.Catalog, error) {
	rows, err := execer(ctx, s.db).QueryContext(ctx,
		`SELECT `+catalogColumns+` FROM catalogs WHERE reference_catalog_id IS NULL ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query reference catalogs: %w", err)
	}
	defer rows.Close()

	var out []*models.Catalog
	for rows.Next() {
		c, err := scanCatalog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan catalog: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Catalogs) SpecificCatalog(ctx context.Context, refID id.CatalogID, orgID id.OrganizationID) (*models.Catalog, error) {
	row := execer(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+catalogColumns+` FROM catalogs
		 WHERE reference_catalog_id = $1 AND organization_id = $2`,
		uuid.UUID(refID), uuid.UUID(orgID))
	c, err := scanCatalog(row)
	if err != nil {
		return nil, translateErr(err)
	}
	return c, nil
}

func (s *Catalogs) CreateCatalog(ctx context.Context, catalog *models.Catalog) error {
	var refID uuid.NullUUID
	if catalog.ReferenceCatalogID != nil {
		refID = uuid.NullUUID{UUID: uuid.UUID(*catalog.ReferenceCatalogID), Valid: true}
	}
	_, err := execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO catalogs (id, organization_id, reference_catalog_id, name, domain, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(catalog.ID), uuid.UUID(catalog.OrganizationID), refID,
		catalog.Name, catalog.Domain, catalog.Version, catalog.CreatedAt)
	return translateErr(err)
}
