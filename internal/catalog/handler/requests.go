package handler

import (
	"time"

	"sdgcatalog/internal/catalog/models"
	"sdgcatalog/internal/catalog/service/versioning"
	id "sdgcatalog/pkg/domain"
	dErrors "sdgcatalog/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

// editRequest is the write API payload. Field names follow the Dutch
// catalog vocabulary used by the CMS.
type editRequest struct {
	PublicationDate        *string       `json:"publicatie_datum"`
	TargetVersionID        *string       `json:"doel_versie_id,omitempty"`
	Available              *bool         `json:"product_aanwezig"`
	FallsUnderID           *string       `json:"product_valt_onder,omitempty"`
	AuthorizedOrganization *string       `json:"bevoegde_organisatie,omitempty"`
	InternalRemarks        string        `json:"interne_opmerkingen"`
	EditedFields           []string      `json:"bewerkte_velden,omitempty"`
	Translations           []translation `json:"vertalingen"`
}

type translation struct {
	Language             string `json:"taal"`
	Title                string `json:"titel"`
	Description          string `json:"omschrijving"`
	ProcedureDescription string `json:"procedure_beschrijving"`
	ProcedureLink        string `json:"procedure_link"`
	AvailabilityNote     string `json:"product_aanwezig_toelichting"`
	FallsUnderNote       string `json:"product_valt_onder_toelichting"`
}

// toEditRequest validates the payload's identifiers and date format and
// converts it into the engine's request type.
func (r editRequest) toEditRequest() (versioning.EditRequest, error) {
	req := versioning.EditRequest{
		Available:       r.Available,
		InternalRemarks: r.InternalRemarks,
		EditedFields:    r.EditedFields,
	}

	if r.PublicationDate != nil && *r.PublicationDate != "" {
		t, err := time.Parse(dateLayout, *r.PublicationDate)
		if err != nil {
			return req, dErrors.NewValidation(dErrors.Invalid(
				"publicatie_datum", "expected YYYY-MM-DD"))
		}
		req.PublicationDate = &t
	}
	if r.TargetVersionID != nil && *r.TargetVersionID != "" {
		vid, err := id.ParseVersionID(*r.TargetVersionID)
		if err != nil {
			return req, dErrors.NewValidation(dErrors.Invalid(
				"doel_versie_id", "not a valid version id"))
		}
		req.TargetVersionID = &vid
	}
	if r.FallsUnderID != nil && *r.FallsUnderID != "" {
		pid, err := id.ParseProductID(*r.FallsUnderID)
		if err != nil {
			return req, dErrors.NewValidation(dErrors.Invalid(
				"product_valt_onder", "not a valid product id"))
		}
		req.FallsUnderID = &pid
	}
	if r.AuthorizedOrganization != nil && *r.AuthorizedOrganization != "" {
		oid, err := id.ParseOrganizationID(*r.AuthorizedOrganization)
		if err != nil {
			return req, dErrors.NewValidation(dErrors.Invalid(
				"bevoegde_organisatie", "not a valid organization id"))
		}
		req.AuthorizedOrganizationID = &oid
	}
	for _, tr := range r.Translations {
		req.Texts = append(req.Texts, versioning.TextPayload{
			Language:             models.Language(tr.Language),
			Title:                tr.Title,
			Description:          tr.Description,
			ProcedureDescription: tr.ProcedureDescription,
			ProcedureLink:        tr.ProcedureLink,
			AvailabilityNote:     tr.AvailabilityNote,
			FallsUnderNote:       tr.FallsUnderNote,
		})
	}
	return req, nil
}

// editResponse is the write API result.
type editResponse struct {
	VersionNumber   int           `json:"versie_nummer"`
	PublicationDate *string       `json:"publicatie_datum"`
	Status          string        `json:"status"`
	Translations    []translation `json:"vertalingen"`
}

func newEditResponse(result versioning.Result, now time.Time) editResponse {
	resp := editResponse{
		VersionNumber: result.Version.Version,
		Status:        versionStatus(result.Version, now),
	}
	if result.Version.PublicationDate != nil {
		d := result.Version.PublicationDate.Format(dateLayout)
		resp.PublicationDate = &d
	}
	for _, t := range result.Texts {
		resp.Translations = append(resp.Translations, translation{
			Language:             string(t.Language),
			Title:                t.Title,
			Description:          t.Description,
			ProcedureDescription: t.ProcedureDescription,
			ProcedureLink:        t.ProcedureLink,
			AvailabilityNote:     t.AvailabilityNote,
			FallsUnderNote:       t.FallsUnderNote,
		})
	}
	return resp
}

func versionStatus(v *models.ProductVersion, now time.Time) string {
	switch {
	case v.IsConcept():
		return "concept"
	case v.IsScheduled(now):
		return "gepland"
	default:
		return "gepubliceerd"
	}
}
