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

// Versions is the Postgres VersionStore.
//
// Schema enforcement backing the model invariants:
//   - UNIQUE (product_id, version) for monotonic numbering
//   - partial UNIQUE (product_id) WHERE publication_date IS NULL for the
//     single-concept invariant
//   - UNIQUE (version_id, language) on localized_texts
type Versions struct {
	db *sql.DB
}

func NewVersions(db *sql.DB) *Versions {
	return &Versions{db: db}
}

const versionColumns = `id, product_id, version, publication_date, internal_remarks, edited_fields, created_at, modified_at`

func scanVersion(row interface{ Scan(...any) error }) (*models.ProductVersion, error) {
	var v models.ProductVersion
	var vid, pid uuid.UUID
	var pubDate sql.NullTime
	var edited pq.StringArray
	if err := row.Scan(&vid, &pid, &v.Version, &pubDate, &v.InternalRemarks,
		&edited, &v.CreatedAt, &v.ModifiedAt); err != nil {
		return nil, err
	}
	v.ID = id.VersionID(vid)
	v.ProductID = id.ProductID(pid)
	v.EditedFields = []string(edited)
	if pubDate.Valid {
		d := pubDate.Time
		v.PublicationDate = &d
	}
	return &v, nil
}

func (s *Versions) Versions(ctx context.Context, productID id.ProductID) ([]*models.ProductVersion, error) {
	rows, err := execer(ctx, s.db).QueryContext(ctx,
		`SELECT `+versionColumns+` FROM product_versions WHERE product_id = $1 ORDER BY version`,
		uuid.UUID(productID))
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	var out []*models.ProductVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Versions) TextsFor(ctx context.Context, versionID id.VersionID) ([]models.LocalizedText, error) {
	rows, err := execer(ctx, s.db).QueryContext(ctx, `
		SELECT version_id, language, title, description, procedure_description,
		       procedure_link, product_aanwezig_toelichting, product_valt_onder_toelichting
		FROM localized_texts WHERE version_id = $1 ORDER BY language`,
		uuid.UUID(versionID))
	if err != nil {
		return nil, fmt.Errorf("query localized texts: %w", err)
	}
	defer rows.Close()

	var out []models.LocalizedText
	for rows.Next() {
		var t models.LocalizedText
		var vid uuid.UUID
		if err := rows.Scan(&vid, &t.Language, &t.Title, &t.Description,
			&t.ProcedureDescription, &t.ProcedureLink, &t.AvailabilityNote, &t.FallsUnderNote); err != nil {
			return nil, fmt.Errorf("scan localized text: %w", err)
		}
		t.VersionID = id.VersionID(vid)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Versions) CreateVersion(ctx context.Context, version *models.ProductVersion, texts []models.LocalizedText) error {
	ex := execer(ctx, s.db)
	var pubDate sql.NullTime
	if version.PublicationDate != nil {
		pubDate = sql.NullTime{Time: models.Day(*version.PublicationDate), Valid: true}
	}
	_, err := ex.ExecContext(ctx, `
		INSERT INTO product_versions (id, product_id, version, publication_date,
			internal_remarks, edited_fields, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(version.ID), uuid.UUID(version.ProductID), version.Version, pubDate,
		version.InternalRemarks, pq.StringArray(version.EditedFields),
		version.CreatedAt, version.ModifiedAt)
	if err != nil {
		return translateErr(err)
	}
	return s.insertTexts(ctx, texts)
}

func (s *Versions) UpdateVersion(ctx context.Context, version *models.ProductVersion, texts []models.LocalizedText) error {
	ex := execer(ctx, s.db)
	var pubDate sql.NullTime
	if version.PublicationDate != nil {
		pubDate = sql.NullTime{Time: models.Day(*version.PublicationDate), Valid: true}
	}
	res, err := ex.ExecContext(ctx, `
		UPDATE product_versions
		SET publication_date = $2, internal_remarks = $3, edited_fields = $4, modified_at = $5
		WHERE id = $1`,
		uuid.UUID(version.ID), pubDate, version.InternalRemarks,
		pq.StringArray(version.EditedFields), version.ModifiedAt)
	if err != nil {
		return translateErr(err)
	}
	if err := requireRow(res); err != nil {
		return err
	}
	if _, err := ex.ExecContext(ctx,
		`DELETE FROM localized_texts WHERE version_id = $1`, uuid.UUID(version.ID)); err != nil {
		return translateErr(err)
	}
	return s.insertTexts(ctx, texts)
}

func (s *Versions) insertTexts(ctx context.Context, texts []models.LocalizedText) error {
	ex := execer(ctx, s.db)
	for _, t := range texts {
		_, err := ex.ExecContext(ctx, `
			INSERT INTO localized_texts (version_id, language, title, description,
				procedure_description, procedure_link,
				product_aanwezig_toelichting, product_valt_onder_toelichting)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.UUID(t.VersionID), t.Language, t.Title, t.Description,
			t.ProcedureDescription, t.ProcedureLink, t.AvailabilityNote, t.FallsUnderNote)
		if err != nil {
			return translateErr(err)
		}
	}
	return nil
}

func (s *Versions) ChangedSince(ctx context.Context, since time.Time) ([]*models.ProductVersion, error) {
	rows, err := execer(ctx, s.db).QueryContext(ctx,
		`SELECT `+versionColumns+` FROM product_versions WHERE modified_at >= $1 ORDER BY modified_at`,
		since)
	if err != nil {
		return nil, fmt.Errorf("query changed versions: %w", err)
	}
	defer rows.Close()

	var out []*models.ProductVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
