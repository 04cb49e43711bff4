// Package notify carries product-change events to the external mail
// notifier.
//
// The core never composes or sends mail. It appends ProductChanged events
// to a transactional outbox (same transaction as the version write) and a
// worker publishes them to Kafka, where the notifier consumes them. The
// audience query lives here too because it is pure domain logic.
package notify

import (
	"time"

	id "sdgcatalog/pkg/domain"
)

// Topic is the Kafka topic carrying product-change events.
const Topic = "sdgcatalog.product-changes"

// ChangeKind distinguishes what happened to the product.
type ChangeKind string

const (
	ChangeVersionCreated ChangeKind = "version_created"
	ChangeVersionUpdated ChangeKind = "version_updated"
	ChangePressThrough   ChangeKind = "press_through"
)

// ProductChanged is the event payload. Field names are the wire contract
// with the notifier; treat them as frozen.
type ProductChanged struct {
	EventID        string            `json:"event_id"`
	Kind           ChangeKind        `json:"kind"`
	ProductID      id.ProductID      `json:"product_id"`
	VersionID      id.VersionID      `json:"version_id"`
	Version        int               `json:"version"`
	OrganizationID id.OrganizationID `json:"organization_id"`
	EditedFields   []string          `json:"edited_fields,omitempty"`
	OccurredAt     time.Time         `json:"occurred_at"`
}
