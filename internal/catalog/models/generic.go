package models

import (
	"time"

	id "sdgcatalog/pkg/domain"
)

// GenericStatus is the lifecycle status of a generic product. It is owned
// by the national UPN registry import and recomputed by a scheduled job,
// never edited by hand.
type GenericStatus string

const (
	GenericStatusNew                 GenericStatus = "NEW"
	GenericStatusMissing             GenericStatus = "MISSING"
	GenericStatusReadyForAdmin       GenericStatus = "READY_FOR_ADMIN"
	GenericStatusReadyForPublication GenericStatus = "READY_FOR_PUBLICATION"
	GenericStatusEOL                 GenericStatus = "EOL"
	GenericStatusExpired             GenericStatus = "EXPIRED"
	GenericStatusDeleted             GenericStatus = "DELETED"
)

// TargetAudience is the SDG doelgroep dimension of a generic product's
// identity.
type TargetAudience string

const (
	AudienceCitizen  TargetAudience = "eu-burger"
	AudienceBusiness TargetAudience = "eu-bedrijf"
)

// GenericProduct is the nation-wide, catalog-independent definition of a
// product type. Identity: (UPN, target audience).
type GenericProduct struct {
	ID             id.GenericProductID `json:"id"`
	UPN            string              `json:"upn"`
	UPNLabel       string              `json:"upn_label"`
	TargetAudience TargetAudience      `json:"target_audience"`
	Status         GenericStatus       `json:"status"`
	// UPNRemoved is set by the registry import when the underlying UPN
	// disappears from the national list.
	UPNRemoved bool       `json:"upn_removed"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Ended reports whether the generic product's end date has passed.
func (g *GenericProduct) Ended(today time.Time) bool {
	return g.EndDate != nil && !Day(*g.EndDate).After(Day(today))
}
