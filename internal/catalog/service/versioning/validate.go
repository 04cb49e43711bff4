package versioning

import (
	"context"
	"time"

	"sdgcatalog/internal/catalog/models"
	id "sdgcatalog/pkg/domain"
	dErrors "sdgcatalog/pkg/domain-errors"
)

// TextPayload is the per-language text input of an edit.
type TextPayload struct {
	Language             models.Language
	Title                string
	Description          string
	ProcedureDescription string
	ProcedureLink        string
	AvailabilityNote     string
	FallsUnderNote       string
}

// EditRequest is the authoring input of ApplyEdit. It carries the full new
// product-level state (PUT semantics): Available and FallsUnderID replace
// the stored values, they are not patches.
type EditRequest struct {
	// PublicationDate is the proposed date: nil keeps/creates a concept.
	PublicationDate *time.Time
	// TargetVersionID optionally pins the edit to the version the author
	// was looking at; a mismatch with the current version is a conflict.
	TargetVersionID *id.VersionID
	// Available is the new product_aanwezig value (nil = unknown).
	Available *bool
	// FallsUnderID is the new product_valt_onder value.
	FallsUnderID *id.ProductID
	// AuthorizedOrganizationID explicitly sets the bevoegde organisatie
	// when the product does not have one yet.
	AuthorizedOrganizationID *id.OrganizationID
	InternalRemarks          string
	EditedFields             []string
	// PressThrough marks the edit as originating from automatic
	// press-through rather than an author.
	PressThrough bool
	// Texts may cover a subset of the supported languages; missing
	// languages are carried forward from the current version. A language
	// that cannot be completed either way is a validation error.
	Texts []TextPayload
}

// mergeTexts builds the new version's complete text set: payload entries
// win per language, the current version's rows fill the gaps.
func mergeTexts(current []models.LocalizedText, payload []TextPayload, languages []models.Language) map[models.Language]models.LocalizedText {
	merged := make(map[models.Language]models.LocalizedText, len(languages))
	for _, t := range current {
		merged[t.Language] = t
	}
	for _, p := range payload {
		merged[p.Language] = models.LocalizedText{
			Language:             p.Language,
			Title:                p.Title,
			Description:          p.Description,
			ProcedureDescription: p.ProcedureDescription,
			ProcedureLink:        p.ProcedureLink,
			AvailabilityNote:     p.AvailabilityNote,
			FallsUnderNote:       p.FallsUnderNote,
		}
	}
	return merged
}

// validateTexts checks language coverage and the toelichting consistency
// rules on the merged text set. It reports the first failure per category:
// one language-coverage violation, one availability violation, one
// falls-under violation at most.
func validateTexts(
	merged map[models.Language]models.LocalizedText,
	payload []TextPayload,
	languages []models.Language,
	available *bool,
	fallsUnder *id.ProductID,
) []dErrors.FieldViolation {
	var violations []dErrors.FieldViolation

	if v := validateLanguageCoverage(merged, payload, languages); v != nil {
		violations = append(violations, *v)
	}
	if v := validateAvailabilityNotes(merged, languages, available); v != nil {
		violations = append(violations, *v)
	}
	if v := validateFallsUnderNotes(merged, languages, fallsUnder); v != nil {
		violations = append(violations, *v)
	}
	return violations
}

func validateLanguageCoverage(
	merged map[models.Language]models.LocalizedText,
	payload []TextPayload,
	languages []models.Language,
) *dErrors.FieldViolation {
	supported := make(map[models.Language]bool, len(languages))
	for _, lang := range languages {
		supported[lang] = true
	}
	seen := make(map[models.Language]bool, len(payload))
	for _, p := range payload {
		if !supported[p.Language] {
			v := dErrors.Invalid("vertalingen", "unsupported language: "+string(p.Language))
			return &v
		}
		if seen[p.Language] {
			v := dErrors.Invalid("vertalingen", "duplicate payload for language: "+string(p.Language))
			return &v
		}
		seen[p.Language] = true
	}
	for _, lang := range languages {
		if _, ok := merged[lang]; !ok {
			v := dErrors.Required("vertalingen", "missing texts for language: "+string(lang))
			return &v
		}
	}
	return nil
}

func validateAvailabilityNotes(
	merged map[models.Language]models.LocalizedText,
	languages []models.Language,
	available *bool,
) *dErrors.FieldViolation {
	if available == nil {
		// Unknown availability carries no toelichting requirement.
		return nil
	}
	for _, lang := range languages {
		text, ok := merged[lang]
		if !ok {
			continue
		}
		if !*available && text.AvailabilityNote == "" {
			v := dErrors.Required("product_aanwezig_toelichting",
				"toelichting is required when the product is not offered ("+string(lang)+")")
			return &v
		}
		if *available && text.AvailabilityNote != "" {
			v := dErrors.Invalid("product_aanwezig_toelichting",
				"toelichting must be empty when the product is offered ("+string(lang)+")")
			return &v
		}
	}
	return nil
}

func validateFallsUnderNotes(
	merged map[models.Language]models.LocalizedText,
	languages []models.Language,
	fallsUnder *id.ProductID,
) *dErrors.FieldViolation {
	for _, lang := range languages {
		text, ok := merged[lang]
		if !ok {
			continue
		}
		if fallsUnder != nil && text.FallsUnderNote == "" {
			v := dErrors.Required("product_valt_onder_toelichting",
				"toelichting is required when the product falls under another product ("+string(lang)+")")
			return &v
		}
		if fallsUnder == nil && text.FallsUnderNote != "" {
			v := dErrors.Invalid("product_valt_onder_toelichting",
				"toelichting must be empty when the product does not fall under another product ("+string(lang)+")")
			return &v
		}
	}
	return nil
}

// maxFallsUnderDepth bounds the falls-under walk; chains this deep only
// exist when something is already wrong.
const maxFallsUnderDepth = 32

// checkFallsUnderAcyclic rejects a falls-under link that would make the
// product transitively fall under itself.
func (e *Engine) checkFallsUnderAcyclic(ctx context.Context, productID id.ProductID, fallsUnder *id.ProductID) *dErrors.FieldViolation {
	if fallsUnder == nil {
		return nil
	}
	seen := map[id.ProductID]bool{productID: true}
	next := *fallsUnder
	for depth := 0; depth < maxFallsUnderDepth; depth++ {
		if seen[next] {
			v := dErrors.Invalid("product_valt_onder", "product cannot transitively fall under itself")
			return &v
		}
		seen[next] = true
		parent, err := e.products.Product(ctx, next)
		if err != nil {
			v := dErrors.Invalid("product_valt_onder", "referenced product does not exist")
			return &v
		}
		if parent.FallsUnderID == nil {
			return nil
		}
		next = *parent.FallsUnderID
	}
	v := dErrors.Invalid("product_valt_onder", "falls-under chain too deep")
	return &v
}
