// Package models defines order-time entities: cart items, entered values,
// resolved requirement sets, and the missing-requirements result shape.
// All of these are scoped to one order-creation session; only the final
// name-keyed payload is persisted, by the external order store.
package models

import (
	"encoding/json"
	"strconv"
	"strings"

	catalogmodels "clearcheck/internal/catalog/models"
	id "clearcheck/pkg/domain"
)

// OrderStatus is the requested or persisted status of an order.
type OrderStatus string

const (
	StatusDraft     OrderStatus = "draft"
	StatusSubmitted OrderStatus = "submitted"
)

// ServiceItem is one service+location selection within an order. ItemID is
// unique even when the same (service, location) pair is added twice; each
// duplicate is tracked independently.
type ServiceItem struct {
	ItemID       id.ItemID     `json:"itemId"`
	ServiceID    id.ServiceID  `json:"serviceId"`
	ServiceName  string        `json:"serviceName"`
	LocationID   id.LocationID `json:"locationId"`
	LocationName string        `json:"locationName"`
}

// Label renders the human-readable origin for per-item requirements.
func (i ServiceItem) Label() string {
	return i.ServiceName + " — " + i.LocationName
}

// Value is the tagged variant over entered field values: a scalar, a list
// (checkbox groups), or an address block.
type Value interface {
	isValue()
}

type Scalar string

func (Scalar) isValue() {}

type List []string

func (List) isValue() {}

type Address catalogmodels.AddressBlockValue

func (Address) isValue() {}

// Fills reports whether v satisfies a field of the given kind. The
// address-block leniency rule lives on AddressBlockValue.Filled; every
// other kind reduces to "some non-blank input".
func Fills(kind catalogmodels.FieldKind, v Value) bool {
	if v == nil {
		return false
	}
	if kind == catalogmodels.KindAddressBlock {
		a, ok := v.(Address)
		return ok && catalogmodels.AddressBlockValue(a).Filled()
	}
	switch tv := v.(type) {
	case Scalar:
		return strings.TrimSpace(string(tv)) != ""
	case List:
		return len(tv) > 0
	default:
		return false
	}
}

// ValueFromJSON converts a decoded JSON value into the tagged variant.
// Strings and numbers become scalars, arrays become lists, objects become
// address blocks. Unsupported shapes return nil (treated as absent).
func ValueFromJSON(raw any) Value {
	switch tv := raw.(type) {
	case string:
		return Scalar(tv)
	case float64:
		return Scalar(strconv.FormatFloat(tv, 'f', -1, 64))
	case bool:
		if tv {
			return Scalar("true")
		}
		return Scalar("")
	case []any:
		var list List
		for _, e := range tv {
			if s, ok := e.(string); ok {
				list = append(list, s)
			}
		}
		return list
	case map[string]any:
		payload, err := json.Marshal(tv)
		if err != nil {
			return nil
		}
		var a catalogmodels.AddressBlockValue
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil
		}
		return Address(a)
	default:
		return nil
	}
}

// Values maps requirement IDs to entered values.
type Values map[id.RequirementID]Value

// DocumentRef is an uploaded document attached to a requirement.
type DocumentRef struct {
	RequirementID id.RequirementID `json:"requirementId"`
	FileName      string           `json:"fileName"`
	StorageKey    string           `json:"storageKey,omitempty"`
}

// Order is the in-flight order-creation session state.
type Order struct {
	ID            id.OrderID
	Items         []ServiceItem
	SubjectValues Values
	SearchValues  map[id.ItemID]Values
	Documents     map[id.RequirementID]DocumentRef
}

// SearchField is a search-scoped requirement tagged with the service and
// location it was resolved for, so it can be matched to cart items and
// grouped per item in the UI.
type SearchField struct {
	catalogmodels.Requirement
	ServiceID  id.ServiceID  `json:"serviceId"`
	LocationID id.LocationID `json:"locationId"`
}

// ResolvedRequirementSet is the outcome of requirement resolution for one
// selection of service+location pairs. Subject fields and documents are
// deduplicated order-wide; search fields stay tagged per pair. Computed
// fresh whenever the selection changes, never persisted.
type ResolvedRequirementSet struct {
	SubjectFields []catalogmodels.Requirement `json:"subjectFields"`
	SearchFields  []SearchField               `json:"searchFields"`
	Documents     []catalogmodels.Requirement `json:"documents"`
}

// MissingEntry is one unmet requirement with its display name and origin
// label.
type MissingEntry struct {
	RequirementID id.RequirementID `json:"requirementId"`
	Name          string           `json:"name"`
	Origin        string           `json:"origin"`
}

// MissingRequirements groups unmet requirements the way the confirmation
// dialog presents them. Never an error: an unmet requirement is a
// structured result, not an exception.
type MissingRequirements struct {
	SubjectFields []MissingEntry `json:"subjectFields"`
	SearchFields  []MissingEntry `json:"searchFields"`
	Documents     []MissingEntry `json:"documents"`
}

// IsValid reports whether nothing is missing.
func (m MissingRequirements) IsValid() bool {
	return len(m.SubjectFields) == 0 && len(m.SearchFields) == 0 && len(m.Documents) == 0
}

// OriginAllServices labels order-wide subject requirements.
const OriginAllServices = "All services"

// Document origin labels by catalog scope.
const (
	OriginPerCase    = "Per case"
	OriginPerService = "Per service"
)
