// Package versioning implements the version transition engine: the single
// write path for product versions. Every authoring surface (REST, CMS form,
// press-through) funnels through ApplyEdit so the decision table and the
// validation rules hold everywhere.
package versioning

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	catalogmetrics "sdgcatalog/internal/catalog/metrics"
	"sdgcatalog/internal/catalog/models"
	"sdgcatalog/internal/catalog/notify"
	"sdgcatalog/internal/catalog/store"
	id "sdgcatalog/pkg/domain"
	dErrors "sdgcatalog/pkg/domain-errors"
	"sdgcatalog/pkg/platform/sentinel"
	"sdgcatalog/pkg/platform/tx"
	"sdgcatalog/pkg/requestcontext"
)

var tracer = otel.Tracer("sdgcatalog/versioning")

// Engine is the version transition engine.
type Engine struct {
	products  store.ProductStore
	versions  store.VersionStore
	catalogs  store.CatalogStore
	orgs      store.OrganizationStore
	tx        tx.Runner
	logger    *slog.Logger
	metrics   *catalogmetrics.Metrics
	sink      notify.Sink
	languages []models.Language
}

type engineConfig struct {
	tx        tx.Runner
	logger    *slog.Logger
	metrics   *catalogmetrics.Metrics
	sink      notify.Sink
	languages []models.Language
}

// Option configures an Engine.
type Option func(*engineConfig)

func WithTxRunner(r tx.Runner) Option {
	return func(c *engineConfig) { c.tx = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *engineConfig) { c.logger = l }
}

func WithMetrics(m *catalogmetrics.Metrics) Option {
	return func(c *engineConfig) { c.metrics = m }
}

func WithSink(s notify.Sink) Option {
	return func(c *engineConfig) { c.sink = s }
}

func WithLanguages(langs []models.Language) Option {
	return func(c *engineConfig) { c.languages = langs }
}

func NewEngine(
	products store.ProductStore,
	versions store.VersionStore,
	catalogs store.CatalogStore,
	orgs store.OrganizationStore,
	opts ...Option,
) *Engine {
	cfg := &engineConfig{
		tx:        tx.NopRunner{},
		logger:    slog.Default(),
		languages: models.SupportedLanguages,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Engine{
		products:  products,
		versions:  versions,
		catalogs:  catalogs,
		orgs:      orgs,
		tx:        cfg.tx,
		logger:    cfg.logger,
		metrics:   cfg.metrics,
		sink:      cfg.sink,
		languages: cfg.languages,
	}
}

// Result is the outcome of one edit.
type Result struct {
	Version *models.ProductVersion
	Texts   []models.LocalizedText
	// Created is true when the edit forked a new version, false when the
	// current version was mutated in place.
	Created bool
}

// ApplyEdit validates and persists one authoring request against a
// product.
//
// Everything is written in one transaction: the version, its localized
// texts, and the product-level flags succeed or fail together.
func (e *Engine) ApplyEdit(ctx context.Context, productID id.ProductID, req EditRequest) (Result, error) {
	ctx, span := tracer.Start(ctx, "versioning.ApplyEdit")
	defer span.End()

	now := requestcontext.Now(ctx)

	product, err := e.products.Product(ctx, productID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Result{}, dErrors.New(dErrors.CodeNotFound, "product not found")
		}
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load product")
	}

	catalog, authOrg, err := e.resolveCatalogAndOrganization(ctx, product, req)
	if err != nil {
		e.metrics.IncEditsRejected()
		return Result{}, err
	}

	versions, err := e.versions.Versions(ctx, productID)
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load versions")
	}
	current := models.MostRecentVersion(versions)

	if err := checkTargetVersion(versions, current, req.TargetVersionID, now); err != nil {
		e.metrics.IncEditsRejected()
		return Result{}, err
	}

	create := current == nil
	if current != nil {
		create, err = ShouldCreateNewVersion(current.PublicationDate, req.PublicationDate, now)
		if err != nil {
			e.metrics.IncEditsRejected()
			return Result{}, err
		}
	}

	// Mutating a concept into a scheduled version must not produce a
	// second scheduled version.
	if !create && current != nil && current.IsConcept() && req.PublicationDate != nil &&
		models.Day(*req.PublicationDate).After(models.Day(now)) &&
		models.ScheduledVersion(versions, now) != nil {
		e.metrics.IncEditsRejected()
		return Result{}, dErrors.New(dErrors.CodeConflict,
			"product already has a scheduled version")
	}

	var currentTexts []models.LocalizedText
	if current != nil {
		currentTexts, err = e.versions.TextsFor(ctx, current.ID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load texts")
		}
	}

	merged := mergeTexts(currentTexts, req.Texts, e.languages)
	violations := validateTexts(merged, req.Texts, e.languages, req.Available, req.FallsUnderID)
	if v := e.checkFallsUnderAcyclic(ctx, productID, req.FallsUnderID); v != nil {
		violations = append(violations, *v)
	}
	if len(violations) > 0 {
		e.metrics.IncEditsRejected()
		return Result{}, dErrors.NewValidation(violations...)
	}

	version, texts := e.buildVersion(productID, current, req, merged, now, create)

	err = e.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if create {
			if err := e.versions.CreateVersion(txCtx, version, texts); err != nil {
				return err
			}
		} else {
			if err := e.versions.UpdateVersion(txCtx, version, texts); err != nil {
				return err
			}
		}

		product.Available = req.Available
		product.FallsUnderID = req.FallsUnderID
		product.AuthorizedOrganizationID = authOrg
		product.UpdatedAt = now
		if err := e.products.UpdateProduct(txCtx, product); err != nil {
			return err
		}

		return e.emitChange(txCtx, catalog, version, req, create)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Result{}, dErrors.New(dErrors.CodeConflict,
				"concurrent edit conflict, retry with fresh state")
		}
		if dErrors.HasCode(err, dErrors.CodeInternal) || dErrors.HasCode(err, dErrors.CodeValidation) {
			return Result{}, err
		}
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist edit")
	}

	if create {
		e.metrics.IncVersionsCreated()
	} else {
		e.metrics.IncVersionsMutated()
	}
	e.logger.InfoContext(ctx, "edit applied",
		"product_id", productID.String(),
		"version", version.Version,
		"created", create,
		"request_id", requestcontext.RequestID(ctx),
	)

	return Result{Version: version, Texts: texts, Created: create}, nil
}

// resolveCatalogAndOrganization enforces the specific-product resolution
// rule: a catalog and a bevoegde organisatie must resolve before any
// version may be created. Resolution failures are validation errors.
func (e *Engine) resolveCatalogAndOrganization(ctx context.Context, product *models.Product, req EditRequest) (*models.Catalog, id.OrganizationID, error) {
	catalog, err := e.catalogs.Catalog(ctx, product.CatalogID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, id.OrganizationID{}, dErrors.NewValidation(
				dErrors.Required("catalogus", "product has no resolvable catalog"))
		}
		return nil, id.OrganizationID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load catalog")
	}
	if err := product.ValidateVariant(catalog); err != nil {
		return nil, id.OrganizationID{}, err
	}

	authOrg := product.AuthorizedOrganizationID
	if product.IsReference() || !authOrg.IsNil() {
		return catalog, authOrg, nil
	}

	if req.AuthorizedOrganizationID != nil {
		if _, err := e.orgs.Organization(ctx, *req.AuthorizedOrganizationID); err != nil {
			return nil, id.OrganizationID{}, dErrors.NewValidation(
				dErrors.Invalid("bevoegde_organisatie", "organization does not exist"))
		}
		return catalog, *req.AuthorizedOrganizationID, nil
	}

	// Fallback: the owning body itself, but only where it is its own
	// verantwoordelijke organisatie.
	body, err := e.orgs.Organization(ctx, catalog.OrganizationID)
	if err != nil {
		return nil, id.OrganizationID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load owning organization")
	}
	if !body.IsSelfResponsible() {
		return nil, id.OrganizationID{}, dErrors.NewValidation(
			dErrors.Required("bevoegde_organisatie", "no default authorizing organization resolvable"))
	}
	return catalog, body.ID, nil
}

// checkTargetVersion validates an optimistic version pin. Editing a
// version that is published (and no longer the edit target the table
// would pick) is the "already published, cannot re-publish" rejection;
// any other mismatch is a stale-read conflict.
func checkTargetVersion(versions []*models.ProductVersion, current *models.ProductVersion, target *id.VersionID, now time.Time) error {
	if target == nil {
		return nil
	}
	var pinned *models.ProductVersion
	for _, v := range versions {
		if v.ID == *target {
			pinned = v
			break
		}
	}
	if pinned == nil {
		return dErrors.New(dErrors.CodeNotFound, "target version not found")
	}
	if current != nil && pinned.ID == current.ID {
		return nil
	}
	if pinned.IsPublished(now) {
		return dErrors.NewValidation(dErrors.Invalid(
			"publicatie_datum", "version already published, cannot re-publish"))
	}
	return dErrors.New(dErrors.CodeConflict, "edit targets a superseded version")
}

// buildVersion materializes the version row and its ordered text set.
func (e *Engine) buildVersion(
	productID id.ProductID,
	current *models.ProductVersion,
	req EditRequest,
	merged map[models.Language]models.LocalizedText,
	now time.Time,
	create bool,
) (*models.ProductVersion, []models.LocalizedText) {
	var pubDate *time.Time
	if req.PublicationDate != nil {
		d := models.Day(*req.PublicationDate)
		pubDate = &d
	}

	var version *models.ProductVersion
	if create {
		next := 1
		if current != nil {
			next = current.Version + 1
		}
		version = &models.ProductVersion{
			ID:              id.NewVersionID(),
			ProductID:       productID,
			Version:         next,
			PublicationDate: pubDate,
			InternalRemarks: req.InternalRemarks,
			EditedFields:    req.EditedFields,
			CreatedAt:       now,
			ModifiedAt:      now,
		}
	} else {
		v := *current
		v.PublicationDate = pubDate
		v.InternalRemarks = req.InternalRemarks
		v.EditedFields = req.EditedFields
		v.ModifiedAt = now
		version = &v
	}

	texts := make([]models.LocalizedText, 0, len(e.languages))
	for _, lang := range e.languages {
		t := merged[lang]
		t.Language = lang
		t.VersionID = version.ID
		texts = append(texts, t)
	}
	return version, texts
}

func (e *Engine) emitChange(ctx context.Context, catalog *models.Catalog, version *models.ProductVersion, req EditRequest, created bool) error {
	if e.sink == nil {
		return nil
	}
	kind := notify.ChangeVersionUpdated
	if created {
		kind = notify.ChangeVersionCreated
	}
	if req.PressThrough {
		kind = notify.ChangePressThrough
	}
	return e.sink.ProductChanged(ctx, notify.ProductChanged{
		Kind:           kind,
		ProductID:      version.ProductID,
		VersionID:      version.ID,
		Version:        version.Version,
		OrganizationID: catalog.OrganizationID,
		EditedFields:   version.EditedFields,
		OccurredAt:     version.ModifiedAt,
	})
}
