package models

import (
	"time"

	id "sdgcatalog/pkg/domain"
)

// Language is an ISO 639-1 language code for localized product texts.
type Language string

const (
	LanguageNL Language = "nl"
	LanguageEN Language = "en"
)

// SupportedLanguages is the default language set: every version carries
// exactly one localized text row per entry.
var SupportedLanguages = []Language{LanguageNL, LanguageEN}

// ProductVersion is an immutable-once-published snapshot of a product's
// publishable state.
//
// Invariants:
//   - Version numbers are monotonic per product, starting at 1
//   - At most one concept (nil publication date) per product
//   - At most one scheduled version (publication date strictly in the
//     future) per product
//   - Content is frozen once the publication date is in the past at save
//     time; enforced by the versioning engine, not by storage
type ProductVersion struct {
	ID        id.VersionID `json:"id"`
	ProductID id.ProductID `json:"product_id"`
	Version   int          `json:"version"`
	// PublicationDate is nil for concepts and a calendar day otherwise.
	PublicationDate *time.Time `json:"publication_date,omitempty"`
	InternalRemarks string     `json:"internal_remarks"`
	// EditedFields records which payload fields the author touched at save
	// time, for the change digest mail.
	EditedFields []string  `json:"edited_fields"`
	CreatedAt    time.Time `json:"created_at"`
	ModifiedAt   time.Time `json:"modified_at"`
}

// IsConcept reports whether this version has no publication date.
func (v *ProductVersion) IsConcept() bool { return v.PublicationDate == nil }

// IsPublished reports whether the publication date is today or earlier.
func (v *ProductVersion) IsPublished(today time.Time) bool {
	return v.PublicationDate != nil && !Day(*v.PublicationDate).After(Day(today))
}

// IsScheduled reports whether the publication date is strictly in the
// future.
func (v *ProductVersion) IsScheduled(today time.Time) bool {
	return v.PublicationDate != nil && Day(*v.PublicationDate).After(Day(today))
}

// Untouched reports whether no human has edited this version since it was
// generated: created and modified fall within the same minute. The catalog
// synchronizer only auto-syncs untouched version-1 concepts.
func (v *ProductVersion) Untouched() bool {
	return v.ModifiedAt.Sub(v.CreatedAt) < time.Minute
}

// LocalizedText is the per-language payload of one product version.
// Exactly one row per supported language per version.
type LocalizedText struct {
	VersionID id.VersionID `json:"version_id"`
	Language  Language     `json:"language"`
	Title     string       `json:"title"`
	// Description is the body text shown to citizens and businesses.
	Description          string `json:"description"`
	ProcedureDescription string `json:"procedure_description"`
	ProcedureLink        string `json:"procedure_link"`
	// AvailabilityNote mirrors product_aanwezig_toelichting: required when
	// the product is not offered, forbidden when it is.
	AvailabilityNote string `json:"product_aanwezig_toelichting"`
	// FallsUnderNote mirrors product_valt_onder_toelichting: required when
	// the product falls under another product, forbidden otherwise.
	FallsUnderNote string `json:"product_valt_onder_toelichting"`
}

// Day truncates a timestamp to its UTC calendar day. Publication dates and
// press-through dates are compared at day granularity everywhere.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two timestamps fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool { return Day(a).Equal(Day(b)) }

// The version query functions below are the explicit, documented
// replacements for cached "most recent"/"active" model properties. All of
// them expect the full version list of a single product, in any order, and
// are null-safe.

// MostRecentVersion returns the version with the highest version number,
// or nil for an empty slice.
func MostRecentVersion(versions []*ProductVersion) *ProductVersion {
	var recent *ProductVersion
	for _, v := range versions {
		if recent == nil || v.Version > recent.Version {
			recent = v
		}
	}
	return recent
}

// ActiveVersion returns the version with the latest publication date that
// is today or earlier, or nil if the product has never been published.
// Concepts and scheduled versions never qualify. Ordering: publication date
// descending, version number descending as tiebreaker (re-publication on
// the same day supersedes the older version).
func ActiveVersion(versions []*ProductVersion, today time.Time) *ProductVersion {
	var active *ProductVersion
	for _, v := range versions {
		if !v.IsPublished(today) {
			continue
		}
		if active == nil {
			active = v
			continue
		}
		vd, ad := Day(*v.PublicationDate), Day(*active.PublicationDate)
		if vd.After(ad) || (vd.Equal(ad) && v.Version > active.Version) {
			active = v
		}
	}
	return active
}

// ConceptVersion returns the product's concept version, or nil. By the
// single-concept invariant there is at most one.
func ConceptVersion(versions []*ProductVersion) *ProductVersion {
	for _, v := range versions {
		if v.IsConcept() {
			return v
		}
	}
	return nil
}

// ScheduledVersion returns the version scheduled strictly after today, or
// nil. By the single-scheduled invariant there is at most one.
func ScheduledVersion(versions []*ProductVersion, today time.Time) *ProductVersion {
	for _, v := range versions {
		if v.IsScheduled(today) {
			return v
		}
	}
	return nil
}
