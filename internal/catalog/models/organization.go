package models

import (
	"time"

	id "sdgcatalog/pkg/domain"
)

// Organization is a government body (gemeente, waterschap, provincie) that
// owns specific catalogs and employs the editorial users.
//
// Invariants:
//   - Name is non-empty
//   - ResponsibleID points at the OWMS "verantwoordelijke organisatie" this
//     body acts under; for most bodies that is the body itself
type Organization struct {
	ID             id.OrganizationID `json:"id"`
	Name           string            `json:"name"`
	OWMSIdentifier string            `json:"owms_identifier"`
	// AutoCatalog enables catalog synchronization for this body: the
	// synchronizer creates a specific catalog per reference catalog and a
	// specific product shadow per reference product.
	AutoCatalog   bool              `json:"auto_catalog"`
	ResponsibleID id.OrganizationID `json:"responsible_id"`
	CreatedAt     time.Time         `json:"created_at"`
}

// IsSelfResponsible reports whether this body is its own verantwoordelijke
// organisatie. Only then may it serve as the default bevoegde organisatie
// for a product (explicit resolution is required otherwise).
func (o *Organization) IsSelfResponsible() bool {
	return o.ResponsibleID == o.ID
}

// Role ties an editorial user to a government body. Unique per
// (user, organization).
type Role struct {
	UserID         id.UserID         `json:"user_id"`
	OrganizationID id.OrganizationID `json:"organization_id"`
	Email          string            `json:"email"`
	IsRedactor     bool              `json:"is_redactor"`
	IsManager      bool              `json:"is_manager"`
	// MailOnChange opts the user into change notification mail.
	MailOnChange bool `json:"mail_on_change"`
}

// NotificationAudience selects who should be mailed about product changes
// for one government body: redactors with mail enabled, falling back to
// managers with mail enabled when no such redactor exists.
func NotificationAudience(roles []Role) []Role {
	var redactors, managers []Role
	for _, r := range roles {
		if !r.MailOnChange {
			continue
		}
		if r.IsRedactor {
			redactors = append(redactors, r)
		} else if r.IsManager {
			managers = append(managers, r)
		}
	}
	if len(redactors) > 0 {
		return redactors
	}
	return managers
}
