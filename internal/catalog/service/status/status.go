// Package status recomputes the lifecycle status of generic products from
// the facts the registry import and the catalog leave behind.
package status

import (
	"context"
	"errors"
	"log/slog"

	"sdgcatalog/internal/catalog/models"
	"sdgcatalog/internal/catalog/store"
	id "sdgcatalog/pkg/domain"
	"sdgcatalog/pkg/platform/sentinel"
	"sdgcatalog/pkg/requestcontext"
)

// Inputs are the facts one recompute decision is made from.
type Inputs struct {
	// UPNRemoved: the UPN disappeared from the national registry list.
	UPNRemoved bool
	// EndDateSet and EndDatePassed describe the registry end date.
	EndDateSet     bool
	EndDatePassed  bool
	HasGenericText bool
	// HasActiveReference: at least one reference product of this generic
	// family has an active (published) version.
	HasActiveReference bool
}

// Compute maps the inputs onto a status. Rules apply in order of severity:
//
//	UPN removed                        -> DELETED
//	end date passed                    -> EXPIRED
//	end date set, not passed           -> EOL
//	no generic text                    -> MISSING
//	text, no active reference version  -> READY_FOR_ADMIN
//	text and active reference version  -> READY_FOR_PUBLICATION
//
// NEW is the import's initial state only; a recompute never produces it.
func Compute(in Inputs) models.GenericStatus {
	switch {
	case in.UPNRemoved:
		return models.GenericStatusDeleted
	case in.EndDatePassed:
		return models.GenericStatusExpired
	case in.EndDateSet:
		return models.GenericStatusEOL
	case !in.HasGenericText:
		return models.GenericStatusMissing
	case !in.HasActiveReference:
		return models.GenericStatusReadyForAdmin
	default:
		return models.GenericStatusReadyForPublication
	}
}

// Recomputer runs the recompute job over the generic product set.
type Recomputer struct {
	generics store.GenericStore
	products store.ProductStore
	versions store.VersionStore
	logger   *slog.Logger
}

func NewRecomputer(generics store.GenericStore, products store.ProductStore, versions store.VersionStore, logger *slog.Logger) *Recomputer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recomputer{generics: generics, products: products, versions: versions, logger: logger}
}

// Result summarizes one recompute run.
type Result struct {
	Examined int
	Changed  int
	Failures []Failure
}

type Failure struct {
	GenericProductID id.GenericProductID
	Err              error
}

// RecomputeOne recomputes and persists the status of a single generic
// product, returning the (possibly unchanged) status.
func (r *Recomputer) RecomputeOne(ctx context.Context, genericID id.GenericProductID) (models.GenericStatus, error) {
	generic, err := r.generics.GenericProduct(ctx, genericID)
	if err != nil {
		return "", err
	}
	return r.recompute(ctx, generic)
}

// Run recomputes every generic product, isolating per-item failures.
func (r *Recomputer) Run(ctx context.Context) (Result, error) {
	generics, err := r.generics.AllGenericProducts(ctx)
	if err != nil {
		return Result{}, err
	}

	result := Result{Examined: len(generics)}
	for _, generic := range generics {
		before := generic.Status
		after, err := r.recompute(ctx, generic)
		if err != nil {
			result.Failures = append(result.Failures, Failure{GenericProductID: generic.ID, Err: err})
			continue
		}
		if after != before {
			result.Changed++
		}
	}

	r.logger.InfoContext(ctx, "generic status recompute done",
		"examined", result.Examined,
		"changed", result.Changed,
		"failures", len(result.Failures),
	)
	return result, nil
}

func (r *Recomputer) recompute(ctx context.Context, generic *models.GenericProduct) (models.GenericStatus, error) {
	today := requestcontext.Now(ctx)

	hasText, err := r.generics.HasLocalizedText(ctx, generic.ID)
	if err != nil {
		return "", err
	}
	hasActive, err := r.hasActiveReference(ctx, generic.ID)
	if err != nil {
		return "", err
	}

	next := Compute(Inputs{
		UPNRemoved:         generic.UPNRemoved,
		EndDateSet:         generic.EndDate != nil,
		EndDatePassed:      generic.Ended(today),
		HasGenericText:     hasText,
		HasActiveReference: hasActive,
	})
	if next == generic.Status {
		return next, nil
	}

	generic.Status = next
	generic.UpdatedAt = today
	if err := r.generics.UpdateGenericProduct(ctx, generic); err != nil {
		return "", err
	}
	return next, nil
}

func (r *Recomputer) hasActiveReference(ctx context.Context, genericID id.GenericProductID) (bool, error) {
	refs, err := r.products.ReferenceProductsForGeneric(ctx, genericID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	today := requestcontext.Now(ctx)
	for _, ref := range refs {
		versions, err := r.versions.Versions(ctx, ref.ID)
		if err != nil {
			return false, err
		}
		if models.ActiveVersion(versions, today) != nil {
			return true, nil
		}
	}
	return false, nil
}
