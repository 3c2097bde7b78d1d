// Package models defines requirement catalog entries. The catalog is
// owned by an external service; these types are immutable from this
// service's perspective.
package models

import (
	"strings"

	id "clearcheck/pkg/domain"
	derrors "clearcheck/pkg/domain-errors"
)

// RequirementType distinguishes what kind of input a requirement demands.
type RequirementType string

const (
	TypeField    RequirementType = "field"
	TypeDocument RequirementType = "document"
	TypeForm     RequirementType = "form"
)

// Scope states whose input satisfies the requirement.
type Scope string

const (
	// ScopeSubject: entered once about the order's subject, shared by
	// every service item in the order.
	ScopeSubject Scope = "subject"
	// ScopeSearch: entered per service item; the same requirement may be
	// required for one item and not another.
	ScopeSearch Scope = "search"
	// ScopePerCase / ScopePerService label document requirements.
	ScopePerCase    Scope = "per_case"
	ScopePerService Scope = "per_service"
)

// FieldKind is the tagged variant over field data types. All behavior that
// depends on the data type, in particular the fill rule, lives here rather
// than in string switches scattered across callers.
type FieldKind string

const (
	KindText         FieldKind = "text"
	KindNumber       FieldKind = "number"
	KindDate         FieldKind = "date"
	KindEmail        FieldKind = "email"
	KindPhone        FieldKind = "phone"
	KindSelect       FieldKind = "select"
	KindCheckbox     FieldKind = "checkbox"
	KindRadio        FieldKind = "radio"
	KindAddressBlock FieldKind = "address_block"
)

var validFieldKinds = map[FieldKind]bool{
	KindText: true, KindNumber: true, KindDate: true, KindEmail: true,
	KindPhone: true, KindSelect: true, KindCheckbox: true, KindRadio: true,
	KindAddressBlock: true,
}

// ParseFieldKind constructs a FieldKind from external input.
func ParseFieldKind(s string) (FieldKind, error) {
	k := FieldKind(s)
	if !validFieldKinds[k] {
		return "", derrors.New(derrors.CodeBadRequest, "unknown field kind: "+s)
	}
	return k, nil
}

// IsComposite reports whether values for this kind are structured rather
// than scalar.
func (k FieldKind) IsComposite() bool {
	return k == KindAddressBlock
}

// Requirement is one catalog entry: a field, document, or form an order
// may need to supply. Required is the service-level default; whether the
// requirement applies at all to a given location is decided by the
// mapping configuration.
type Requirement struct {
	ID       id.RequirementID `json:"id"`
	Name     string           `json:"name"`
	Type     RequirementType  `json:"type"`
	DataType FieldKind        `json:"dataType,omitempty"`
	Scope    Scope            `json:"scope"`
	Required bool             `json:"required"`
}

// AddressBlockValue is the composite value for address_block fields. All
// components are optional strings.
type AddressBlockValue struct {
	Street1    string `json:"street1,omitempty"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	County     string `json:"county,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

// Filled reports whether the block counts as filled. The rule is
// deliberately lenient: any one of street1/city/state/postalCode being a
// non-blank string satisfies the block. Street2 and county never count
// toward the fill test; new optional components must keep that property.
func (a AddressBlockValue) Filled() bool {
	for _, part := range []string{a.Street1, a.City, a.State, a.PostalCode} {
		if strings.TrimSpace(part) != "" {
			return true
		}
	}
	return false
}
