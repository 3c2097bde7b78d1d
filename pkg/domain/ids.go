// Package domain holds typed identifiers and small domain primitives shared
// across verticals. Construct values via Parse* functions at trust
// boundaries; direct casting bypasses validation.
package domain

import (
	"github.com/google/uuid"
)

// ServiceID identifies a screening service offering (e.g. a background
// check product). Services come from an upstream catalog, so the ID is an
// opaque string rather than a UUID minted here.
type ServiceID string

func (s ServiceID) String() string { return string(s) }
func (s ServiceID) IsNil() bool    { return s == "" }

// LocationID identifies a node in the geography hierarchy. The synthetic
// root uses the reserved value RootLocationID, which never appears in the
// upstream location feed.
type LocationID string

// RootLocationID is the synthetic "all locations" node.
const RootLocationID LocationID = "all"

func (l LocationID) String() string { return string(l) }
func (l LocationID) IsNil() bool    { return l == "" }
func (l LocationID) IsRoot() bool   { return l == RootLocationID }

// RequirementID identifies a field, document, or form definition owned by
// the requirement catalog.
type RequirementID string

func (r RequirementID) String() string { return string(r) }
func (r RequirementID) IsNil() bool    { return r == "" }

// OrderID identifies a customer order.
type OrderID uuid.UUID

func NewOrderID() OrderID        { return OrderID(uuid.New()) }
func (o OrderID) String() string { return uuid.UUID(o).String() }
func (o OrderID) IsNil() bool    { return o == OrderID(uuid.Nil) }

// ParseOrderID constructs an OrderID from its canonical string form.
func ParseOrderID(s string) (OrderID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return OrderID{}, err
	}
	return OrderID(u), nil
}

func (o OrderID) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *OrderID) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*o = OrderID(u)
	return nil
}

// ItemID identifies one service+location selection within an order. Unique
// even for repeated (service, location) pairs.
type ItemID uuid.UUID

func NewItemID() ItemID         { return ItemID(uuid.New()) }
func (i ItemID) String() string { return uuid.UUID(i).String() }
func (i ItemID) IsNil() bool    { return i == ItemID(uuid.Nil) }

// ParseItemID constructs an ItemID from its canonical string form.
func ParseItemID(s string) (ItemID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ItemID{}, err
	}
	return ItemID(u), nil
}

func (i ItemID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *ItemID) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*i = ItemID(u)
	return nil
}

// OperatorID identifies the back-office operator performing configuration
// changes. Sourced from the JWT subject claim.
type OperatorID string

func (o OperatorID) String() string { return string(o) }
func (o OperatorID) IsNil() bool    { return o == "" }
