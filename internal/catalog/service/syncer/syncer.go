// Package syncer keeps specific catalogs complete: every auto-enabled
// government body gets a specific catalog per reference catalog, and every
// reference product gets a specific shadow product with an initial concept
// version in each of those catalogs.
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	catalogmetrics "sdgcatalog/internal/catalog/metrics"
	"sdgcatalog/internal/catalog/models"
	"sdgcatalog/internal/catalog/store"
	id "sdgcatalog/pkg/domain"
	"sdgcatalog/pkg/platform/sentinel"
	"sdgcatalog/pkg/platform/tx"
	"sdgcatalog/pkg/requestcontext"
)

var tracer = otel.Tracer("sdgcatalog/syncer")

// Synchronizer runs one synchronization sweep.
type Synchronizer struct {
	orgs      store.OrganizationStore
	catalogs  store.CatalogStore
	products  store.ProductStore
	versions  store.VersionStore
	tx        tx.Runner
	logger    *slog.Logger
	metrics   *catalogmetrics.Metrics
	languages []models.Language
}

type Option func(*Synchronizer)

func WithTxRunner(r tx.Runner) Option {
	return func(s *Synchronizer) { s.tx = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) { s.logger = l }
}

func WithMetrics(m *catalogmetrics.Metrics) Option {
	return func(s *Synchronizer) { s.metrics = m }
}

func WithLanguages(langs []models.Language) Option {
	return func(s *Synchronizer) { s.languages = langs }
}

func NewSynchronizer(
	orgs store.OrganizationStore,
	catalogs store.CatalogStore,
	products store.ProductStore,
	versions store.VersionStore,
	opts ...Option,
) *Synchronizer {
	s := &Synchronizer{
		orgs:      orgs,
		catalogs:  catalogs,
		products:  products,
		versions:  versions,
		tx:        tx.NopRunner{},
		logger:    slog.Default(),
		languages: models.SupportedLanguages,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Failure records one product or catalog the sweep could not complete. The
// sweep continues past it.
type Failure struct {
	CatalogID id.CatalogID
	ProductID id.ProductID
	Err       error
}

// Result summarizes one sweep.
type Result struct {
	CatalogsCreated int
	ProductsCreated int
	TextsBackfilled int
	AutoSynced      int
	Failures        []Failure
}

// Run executes one synchronization sweep.
func (s *Synchronizer) Run(ctx context.Context) (Result, error) {
	ctx, span := tracer.Start(ctx, "syncer.Run")
	defer span.End()

	var result Result

	bodies, err := s.orgs.AutoCatalogOrganizations(ctx)
	if err != nil {
		return result, err
	}
	refCatalogs, err := s.catalogs.ReferenceCatalogs(ctx)
	if err != nil {
		return result, err
	}

	// Phase 1: every auto body gets a specific catalog per reference
	// catalog. specificsOf collects the descendants per reference catalog
	// for the product phase.
	specificsOf := make(map[id.CatalogID][]*models.Catalog, len(refCatalogs))
	for _, ref := range refCatalogs {
		for _, body := range bodies {
			specific, created, err := s.ensureSpecificCatalog(ctx, ref, body)
			if err != nil {
				result.Failures = append(result.Failures, Failure{CatalogID: ref.ID, Err: err})
				continue
			}
			if created {
				result.CatalogsCreated++
				s.metrics.AddCatalogsCreated(1)
			}
			specificsOf[ref.ID] = append(specificsOf[ref.ID], specific)
		}
	}

	// Phase 2: shadow products with initial concept versions, plus the two
	// corrective passes (text backfill, untouched auto-sync).
	for _, ref := range refCatalogs {
		refProducts, err := s.products.ProductsInCatalog(ctx, ref.ID)
		if err != nil {
			result.Failures = append(result.Failures, Failure{CatalogID: ref.ID, Err: err})
			continue
		}
		for _, refProduct := range refProducts {
			refActive, refTexts, err := s.activeTexts(ctx, refProduct)
			if err != nil {
				result.Failures = append(result.Failures, Failure{
					CatalogID: ref.ID, ProductID: refProduct.ID, Err: err,
				})
				continue
			}
			for _, specificCatalog := range specificsOf[ref.ID] {
				outcome, err := s.ensureShadow(ctx, specificCatalog, refProduct, refActive, refTexts)
				if err != nil {
					result.Failures = append(result.Failures, Failure{
						CatalogID: specificCatalog.ID, ProductID: refProduct.ID, Err: err,
					})
					continue
				}
				if outcome.productCreated {
					result.ProductsCreated++
					s.metrics.AddProductsCreated(1)
				}
				result.TextsBackfilled += outcome.textsBackfilled
				if outcome.autoSynced {
					result.AutoSynced++
				}
			}
		}
	}

	s.logger.InfoContext(ctx, "catalog synchronization done",
		"catalogs_created", result.CatalogsCreated,
		"products_created", result.ProductsCreated,
		"texts_backfilled", result.TextsBackfilled,
		"auto_synced", result.AutoSynced,
		"failures", len(result.Failures),
	)
	return result, nil
}

func (s *Synchronizer) ensureSpecificCatalog(ctx context.Context, ref *models.Catalog, body *models.Organization) (*models.Catalog, bool, error) {
	existing, err := s.catalogs.SpecificCatalog(ctx, ref.ID, body.ID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, err
	}

	now := requestcontext.Now(ctx)
	specific, err := models.NewSpecificCatalog(ref, body, now)
	if err != nil {
		return nil, false, err
	}
	if err := s.catalogs.CreateCatalog(ctx, specific); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost a race with a previous run; take the winner.
			existing, ferr := s.catalogs.SpecificCatalog(ctx, ref.ID, body.ID)
			return existing, false, ferr
		}
		return nil, false, err
	}
	return specific, true, nil
}

type shadowOutcome struct {
	productCreated  bool
	textsBackfilled int
	autoSynced      bool
}

func (s *Synchronizer) ensureShadow(
	ctx context.Context,
	specificCatalog *models.Catalog,
	refProduct *models.Product,
	refActive *models.ProductVersion,
	refTexts map[models.Language]models.LocalizedText,
) (shadowOutcome, error) {
	var outcome shadowOutcome
	now := requestcontext.Now(ctx)

	shadow, err := s.products.ShadowProduct(ctx, specificCatalog.ID, refProduct.GenericProductID)
	if errors.Is(err, sentinel.ErrNotFound) {
		shadow = &models.Product{
			ID:                 id.NewProductID(),
			GenericProductID:   refProduct.GenericProductID,
			CatalogID:          specificCatalog.ID,
			ReferenceProductID: &refProduct.ID,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			if err := s.products.CreateProduct(txCtx, shadow); err != nil {
				return err
			}
			return s.createInitialVersion(txCtx, shadow, refTexts, now)
		})
		if err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				// Another run created it; corrective passes below still apply.
				shadow, err = s.products.ShadowProduct(ctx, specificCatalog.ID, refProduct.GenericProductID)
				if err != nil {
					return outcome, err
				}
			} else {
				return outcome, err
			}
		} else {
			outcome.productCreated = true
			return outcome, nil
		}
	} else if err != nil {
		return outcome, err
	}

	versions, err := s.versions.Versions(ctx, shadow.ID)
	if err != nil {
		return outcome, err
	}
	if len(versions) == 0 {
		err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			return s.createInitialVersion(txCtx, shadow, refTexts, now)
		})
		if err != nil {
			return outcome, err
		}
		return outcome, nil
	}

	backfilled, err := s.backfillTexts(ctx, versions)
	if err != nil {
		return outcome, err
	}
	outcome.textsBackfilled = backfilled

	synced, err := s.autoSyncUntouched(ctx, versions, refActive, refTexts)
	if err != nil {
		return outcome, err
	}
	outcome.autoSynced = synced
	return outcome, nil
}

// createInitialVersion writes concept version 1 with a text row per
// supported language, seeded from the reference product's active version
// where one exists.
func (s *Synchronizer) createInitialVersion(ctx context.Context, shadow *models.Product, refTexts map[models.Language]models.LocalizedText, now time.Time) error {
	version := &models.ProductVersion{
		ID:         id.NewVersionID(),
		ProductID:  shadow.ID,
		Version:    1,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	return s.versions.CreateVersion(ctx, version, s.seedTexts(version.ID, refTexts))
}

// seedTexts copies the reference main texts per language; toelichtingen
// start empty, they are the body's own.
func (s *Synchronizer) seedTexts(versionID id.VersionID, refTexts map[models.Language]models.LocalizedText) []models.LocalizedText {
	texts := make([]models.LocalizedText, 0, len(s.languages))
	for _, lang := range s.languages {
		rt := refTexts[lang]
		texts = append(texts, models.LocalizedText{
			VersionID:            versionID,
			Language:             lang,
			Title:                rt.Title,
			Description:          rt.Description,
			ProcedureDescription: rt.ProcedureDescription,
			ProcedureLink:        rt.ProcedureLink,
		})
	}
	return texts
}

// backfillTexts adds missing language rows to the most recent version.
func (s *Synchronizer) backfillTexts(ctx context.Context, versions []*models.ProductVersion) (int, error) {
	current := models.MostRecentVersion(versions)
	texts, err := s.versions.TextsFor(ctx, current.ID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return 0, err
	}
	if len(texts) >= len(s.languages) {
		return 0, nil
	}

	have := make(map[models.Language]bool, len(texts))
	for _, t := range texts {
		have[t.Language] = true
	}
	added := 0
	for _, lang := range s.languages {
		if !have[lang] {
			texts = append(texts, models.LocalizedText{VersionID: current.ID, Language: lang})
			added++
		}
	}
	if added == 0 {
		return 0, nil
	}
	// UpdateVersion rewrites all text rows; without a transaction a failure
	// mid-write could drop the rows that were already there.
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		return s.versions.UpdateVersion(txCtx, current, texts)
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// autoSyncUntouched overwrites the texts of a never-touched initial concept
// with the reference product's newer active texts. The version's timestamps
// are deliberately left alone: bumping ModifiedAt would make the concept
// look human-edited and stop future syncs.
func (s *Synchronizer) autoSyncUntouched(
	ctx context.Context,
	versions []*models.ProductVersion,
	refActive *models.ProductVersion,
	refTexts map[models.Language]models.LocalizedText,
) (bool, error) {
	if refActive == nil || len(versions) != 1 {
		return false, nil
	}
	only := versions[0]
	if only.Version != 1 || only.PublicationDate != nil || !only.Untouched() {
		return false, nil
	}
	if !refActive.ModifiedAt.After(only.ModifiedAt) {
		return false, nil
	}

	current, err := s.versions.TextsFor(ctx, only.ID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return false, err
	}
	notes := make(map[models.Language]models.LocalizedText, len(current))
	for _, t := range current {
		notes[t.Language] = t
	}

	texts := make([]models.LocalizedText, 0, len(s.languages))
	for _, lang := range s.languages {
		rt := refTexts[lang]
		texts = append(texts, models.LocalizedText{
			VersionID:            only.ID,
			Language:             lang,
			Title:                rt.Title,
			Description:          rt.Description,
			ProcedureDescription: rt.ProcedureDescription,
			ProcedureLink:        rt.ProcedureLink,
			AvailabilityNote:     notes[lang].AvailabilityNote,
			FallsUnderNote:       notes[lang].FallsUnderNote,
		})
	}
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		return s.versions.UpdateVersion(txCtx, only, texts)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// activeTexts resolves the reference product's active version and its texts
// mapped per language.
func (s *Synchronizer) activeTexts(ctx context.Context, refProduct *models.Product) (*models.ProductVersion, map[models.Language]models.LocalizedText, error) {
	now := requestcontext.Now(ctx)
	versions, err := s.versions.Versions(ctx, refProduct.ID)
	if err != nil {
		return nil, nil, err
	}
	active := models.ActiveVersion(versions, now)
	byLang := make(map[models.Language]models.LocalizedText)
	if active == nil {
		return nil, byLang, nil
	}
	texts, err := s.versions.TextsFor(ctx, active.ID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil, err
	}
	for _, t := range texts {
		byLang[t.Language] = t
	}
	return active, byLang, nil
}
