// Package pressthrough implements automatic press-through: the scheduled
// propagation of reference product texts onto the specific products that
// opted in.
package pressthrough

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"

	"sdgcatalog/internal/catalog/fieldconfig"
	catalogmetrics "sdgcatalog/internal/catalog/metrics"
	"sdgcatalog/internal/catalog/models"
	"sdgcatalog/internal/catalog/service/versioning"
	"sdgcatalog/internal/catalog/store"
	id "sdgcatalog/pkg/domain"
	"sdgcatalog/pkg/platform/sentinel"
	"sdgcatalog/pkg/requestcontext"
)

var tracer = otel.Tracer("sdgcatalog/pressthrough")

// Propagator runs one press-through sweep over the due reference products.
type Propagator struct {
	products store.ProductStore
	versions store.VersionStore
	catalogs store.CatalogStore
	orgs     store.OrganizationStore
	engine   *versioning.Engine
	cfg      fieldconfig.Config
	logger   *slog.Logger
	metrics  *catalogmetrics.Metrics
}

type Option func(*Propagator)

func WithFieldConfig(cfg fieldconfig.Config) Option {
	return func(p *Propagator) { p.cfg = cfg }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Propagator) { p.logger = l }
}

func WithMetrics(m *catalogmetrics.Metrics) Option {
	return func(p *Propagator) { p.metrics = m }
}

func NewPropagator(
	products store.ProductStore,
	versions store.VersionStore,
	catalogs store.CatalogStore,
	orgs store.OrganizationStore,
	engine *versioning.Engine,
	opts ...Option,
) *Propagator {
	p := &Propagator{
		products: products,
		versions: versions,
		catalogs: catalogs,
		orgs:     orgs,
		engine:   engine,
		cfg:      fieldconfig.Default(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Failure records one product that could not be pressed through. The sweep
// continues past it; the reference flag stays set so the next run retries.
type Failure struct {
	ReferenceID id.ProductID
	ProductID   id.ProductID
	Err         error
}

// Result summarizes one sweep.
type Result struct {
	ReferencesDue    int
	SpecificsUpdated int
	Failures         []Failure
}

// Run executes one sweep: for every due reference product, push its active
// texts onto the due specific products.
//
// Order per reference product is fixed: the availability flag is written in
// bulk first, then texts merge per specific product, then the press-through
// flags reset. A specific product that fails text merge keeps its flag, so
// the flag reset never outruns the data it stands for.
func (p *Propagator) Run(ctx context.Context) (Result, error) {
	ctx, span := tracer.Start(ctx, "pressthrough.Run")
	defer span.End()

	today := requestcontext.Now(ctx)

	refs, err := p.products.ReferenceProductsDue(ctx, today)
	if err != nil {
		return Result{}, err
	}

	result := Result{ReferencesDue: len(refs)}
	for _, ref := range refs {
		updated, failures := p.pressReference(ctx, ref)
		result.SpecificsUpdated += updated
		result.Failures = append(result.Failures, failures...)
	}

	p.logger.InfoContext(ctx, "press-through sweep done",
		"references_due", result.ReferencesDue,
		"specifics_updated", result.SpecificsUpdated,
		"failures", len(result.Failures),
	)
	return result, nil
}

func (p *Propagator) pressReference(ctx context.Context, ref *models.Product) (int, []Failure) {
	today := requestcontext.Now(ctx)

	refVersions, err := p.versions.Versions(ctx, ref.ID)
	if err != nil {
		return 0, []Failure{{ReferenceID: ref.ID, ProductID: ref.ID, Err: err}}
	}
	active := models.ActiveVersion(refVersions, today)
	if active == nil {
		// Nothing published to press through; keep the flag and wait.
		p.logger.WarnContext(ctx, "press-through skipped, reference has no active version",
			"reference_id", ref.ID.String())
		return 0, nil
	}
	refTexts, err := p.versions.TextsFor(ctx, active.ID)
	if err != nil {
		return 0, []Failure{{ReferenceID: ref.ID, ProductID: ref.ID, Err: err}}
	}

	specifics, err := p.products.SpecificProductsDue(ctx, ref.ID, today)
	if err != nil {
		return 0, []Failure{{ReferenceID: ref.ID, ProductID: ref.ID, Err: err}}
	}

	// Availability first, in bulk. Text merge failures later must not leave
	// a specific product advertising the wrong product_aanwezig.
	ids := make([]id.ProductID, 0, len(specifics))
	for _, s := range specifics {
		ids = append(ids, s.ID)
	}
	if ref.Available != nil && len(ids) > 0 {
		if err := p.products.SetAvailabilityBulk(ctx, ids, ref.Available); err != nil {
			return 0, []Failure{{ReferenceID: ref.ID, ProductID: ref.ID, Err: err}}
		}
	}

	var failures []Failure
	var cleared []id.ProductID
	for _, specific := range specifics {
		if err := p.pressSpecific(ctx, ref, refTexts, specific); err != nil {
			p.metrics.AddPressThroughFailed(1)
			failures = append(failures, Failure{
				ReferenceID: ref.ID,
				ProductID:   specific.ID,
				Err:         err,
			})
			continue
		}
		p.metrics.AddPressThroughUpdated(1)
		cleared = append(cleared, specific.ID)
	}

	// Count the specifics before the reference joins the reset batch, so a
	// failing bulk reset cannot inflate the number.
	updated := len(cleared)

	// The reference flag resets only on a clean sweep; a partial run keeps
	// it so the remainder is retried.
	if len(failures) == 0 {
		cleared = append(cleared, ref.ID)
	}
	if len(cleared) > 0 {
		if err := p.products.ClearPressThroughBulk(ctx, cleared); err != nil {
			failures = append(failures, Failure{ReferenceID: ref.ID, ProductID: ref.ID, Err: err})
		}
	}
	return updated, failures
}

// pressSpecific applies the reference texts onto one specific product via
// the versioning engine, publishing today.
func (p *Propagator) pressSpecific(ctx context.Context, ref *models.Product, refTexts []models.LocalizedText, specific *models.Product) error {
	req, err := p.buildRequest(ctx, ref, refTexts, specific)
	if err != nil {
		return err
	}
	_, err = p.engine.ApplyEdit(ctx, specific.ID, req)
	return err
}

func (p *Propagator) buildRequest(ctx context.Context, ref *models.Product, refTexts []models.LocalizedText, specific *models.Product) (versioning.EditRequest, error) {
	// Carry the specific product's own notes; the reference never dictates
	// toelichtingen, only the main texts.
	currentNotes, err := p.currentNotes(ctx, specific)
	if err != nil {
		return versioning.EditRequest{}, err
	}

	available := specific.Available
	if ref.Available != nil {
		available = ref.Available
	}
	newlyUnavailable := available != nil && !*available &&
		(specific.Available == nil || *specific.Available)

	bodyName, err := p.bodyName(ctx, specific)
	if err != nil {
		return versioning.EditRequest{}, err
	}

	texts := make([]versioning.TextPayload, 0, len(refTexts))
	for _, rt := range refTexts {
		note := currentNotes[rt.Language].AvailabilityNote
		if available != nil && *available {
			note = ""
		}
		if newlyUnavailable && note == "" {
			note = p.cfg.UnavailableNote(rt.Language, bodyName, rt.Title)
		}
		texts = append(texts, versioning.TextPayload{
			Language:             rt.Language,
			Title:                rt.Title,
			Description:          rt.Description,
			ProcedureDescription: rt.ProcedureDescription,
			ProcedureLink:        rt.ProcedureLink,
			AvailabilityNote:     note,
			FallsUnderNote:       currentNotes[rt.Language].FallsUnderNote,
		})
	}

	pub := requestcontext.Now(ctx)
	return versioning.EditRequest{
		PublicationDate: &pub,
		Available:       available,
		FallsUnderID:    specific.FallsUnderID,
		EditedFields:    pressedFields,
		PressThrough:    true,
		Texts:           texts,
	}, nil
}

// pressedFields names the fields a press-through overwrites.
var pressedFields = []string{
	"titel", "omschrijving", "procedure_omschrijving", "procedure_link",
}

func (p *Propagator) currentNotes(ctx context.Context, specific *models.Product) (map[models.Language]models.LocalizedText, error) {
	notes := make(map[models.Language]models.LocalizedText)
	versions, err := p.versions.Versions(ctx, specific.ID)
	if err != nil {
		return nil, err
	}
	current := models.MostRecentVersion(versions)
	if current == nil {
		return notes, nil
	}
	texts, err := p.versions.TextsFor(ctx, current.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return notes, nil
		}
		return nil, err
	}
	for _, t := range texts {
		notes[t.Language] = t
	}
	return notes, nil
}

func (p *Propagator) bodyName(ctx context.Context, specific *models.Product) (string, error) {
	catalog, err := p.catalogs.Catalog(ctx, specific.CatalogID)
	if err != nil {
		return "", err
	}
	org, err := p.orgs.Organization(ctx, catalog.OrganizationID)
	if err != nil {
		return "", err
	}
	return org.Name, nil
}
