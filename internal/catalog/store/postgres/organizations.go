package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"sdgcatalog/internal/catalog/models"
	id "sdgcatalog/pkg/domain"
)

// Organizations is the Postgres OrganizationStore.
type Organizations struct {
	db *sql.DB
}

func NewOrganizations(db *sql.DB) *Organizations {
	return &Organizations{db: db}
}

const organizationColumns = `id, name, owms_identifier, auto_catalog, responsible_id, created_at`

func scanOrganization(row interface{ Scan(...any) error }) (*models.Organization, error) {
	var o models.Organization
	var oid, rid uuid.UUID
	if err := row.Scan(&oid, &o.Name, &o.OWMSIdentifier, &o.AutoCatalog, &rid, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.ID = id.OrganizationID(oid)
	o.ResponsibleID = id.OrganizationID(rid)
	return &o, nil
}

func (s *Organizations) Organization(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error) {
	row := execer(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+organizationColumns+` FROM organizations WHERE id = $1`, uuid.UUID(orgID))
	org, err := scanOrganization(row)
	if err != nil {
		return nil, translateErr(err)
	}
	return org, nil
}

func (s *Organizations) AutoCatalogOrganizations(ctx context.Context) ([]*models.Organization, error) {
	rows, err := execer(ctx, s.db).QueryContext(ctx,
		`SELECT `+organizationColumns+` FROM organizations WHERE auto_catalog ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query auto-catalog organizations: %w", err)
	}
	defer rows.Close()

	var out []*models.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		out = append(out, org)
	}
	return out, rows.Err()
}

func (s *Organizations) RolesFor(ctx context.Context, orgID id.OrganizationID) ([]models.Role, error) {
	rows, err := execer(ctx, s.db).QueryContext(ctx, `
		SELECT user_id, organization_id, email, is_redactor, is_manager, mail_on_change
		FROM roles WHERE organization_id = $1`, uuid.UUID(orgID))
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	var out []models.Role
	for rows.Next() {
		var r models.Role
		var uid, oid uuid.UUID
		if err := rows.Scan(&uid, &oid, &r.Email, &r.IsRedactor, &r.IsManager, &r.MailOnChange); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		r.UserID = id.UserID(uid)
		r.OrganizationID = id.OrganizationID(oid)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Organizations) CreateOrganization(ctx context.Context, org *models.Organization) error {
	_, err := execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO organizations (id, name, owms_identifier, auto_catalog, responsible_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(org.ID), org.Name, org.OWMSIdentifier, org.AutoCatalog,
		uuid.UUID(org.ResponsibleID), org.CreatedAt)
	return translateErr(err)
}

func (s *Organizations) CreateRole(ctx context.Context, role models.Role) error {
	_, err := execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO roles (user_id, organization_id, email, is_redactor, is_manager, mail_on_change)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(role.UserID), uuid.UUID(role.OrganizationID), role.Email,
		role.IsRedactor, role.IsManager, role.MailOnChange)
	return translateErr(err)
}
