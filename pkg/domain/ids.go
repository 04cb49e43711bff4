// Package domain defines typed identifiers for the catalog domain.
//
// Each entity gets its own UUID-backed type so the compiler rejects
// cross-entity mixups (passing a CatalogID where a ProductID is expected).
package domain

import (
	"github.com/google/uuid"

	dErrors "sdgcatalog/pkg/domain-errors"
)

type (
	// OrganizationID identifies a government body (gemeente, waterschap, ...).
	OrganizationID uuid.UUID

	// CatalogID identifies a reference or specific catalog.
	CatalogID uuid.UUID

	// GenericProductID identifies a UPN + target-audience product definition.
	GenericProductID uuid.UUID

	// ProductID identifies a catalog-scoped product instance.
	ProductID uuid.UUID

	// VersionID identifies a single product version row.
	VersionID uuid.UUID

	// UserID identifies an editorial user (redactor or manager).
	UserID uuid.UUID
)

func (id OrganizationID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id CatalogID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id GenericProductID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ProductID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id VersionID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool           { return uuid.UUID(id) == uuid.Nil }

func (id OrganizationID) String() string   { return uuid.UUID(id).String() }
func (id CatalogID) String() string        { return uuid.UUID(id).String() }
func (id GenericProductID) String() string { return uuid.UUID(id).String() }
func (id ProductID) String() string        { return uuid.UUID(id).String() }
func (id VersionID) String() string        { return uuid.UUID(id).String() }
func (id UserID) String() string           { return uuid.UUID(id).String() }

// The named types do not inherit uuid.UUID's encoding methods, so each
// implements TextMarshaler/TextUnmarshaler itself. JSON then carries ids in
// their canonical string form.

func (id OrganizationID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id CatalogID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id GenericProductID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id ProductID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id VersionID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id UserID) MarshalText() ([]byte, error)           { return []byte(id.String()), nil }

func (id *OrganizationID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b))
	*id = OrganizationID(u)
	return err
}

func (id *CatalogID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b))
	*id = CatalogID(u)
	return err
}

func (id *GenericProductID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b))
	*id = GenericProductID(u)
	return err
}

func (id *ProductID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b))
	*id = ProductID(u)
	return err
}

func (id *VersionID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b))
	*id = VersionID(u)
	return err
}

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b))
	*id = UserID(u)
	return err
}

// parseUUID enforces the shared invariant: IDs must be valid, non-nil UUIDs.
func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}

func ParseOrganizationID(s string) (OrganizationID, error) {
	u, err := parseUUID(s)
	return OrganizationID(u), err
}

func ParseCatalogID(s string) (CatalogID, error) {
	u, err := parseUUID(s)
	return CatalogID(u), err
}

func ParseGenericProductID(s string) (GenericProductID, error) {
	u, err := parseUUID(s)
	return GenericProductID(u), err
}

func ParseProductID(s string) (ProductID, error) {
	u, err := parseUUID(s)
	return ProductID(u), err
}

func ParseVersionID(s string) (VersionID, error) {
	u, err := parseUUID(s)
	return VersionID(u), err
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	return UserID(u), err
}

func NewOrganizationID() OrganizationID     { return OrganizationID(uuid.New()) }
func NewCatalogID() CatalogID               { return CatalogID(uuid.New()) }
func NewGenericProductID() GenericProductID { return GenericProductID(uuid.New()) }
func NewProductID() ProductID               { return ProductID(uuid.New()) }
func NewVersionID() VersionID               { return VersionID(uuid.New()) }
func NewUserID() UserID                     { return UserID(uuid.New()) }
