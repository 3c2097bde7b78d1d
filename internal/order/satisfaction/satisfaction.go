// Package satisfaction decides whether an order's entered values satisfy
// its resolved requirement set. The check is pure: same inputs, same
// result, no I/O.
package satisfaction

import (
	catalogmodels "clearcheck/internal/catalog/models"
	"clearcheck/internal/order/models"
)

// CheckMissing reports every unmet requirement of the order against the
// resolved set, grouped the way the confirmation dialog presents them.
// Optional requirements never appear; an unmet requirement is a result,
// not an error.
func CheckMissing(set *models.ResolvedRequirementSet, order *models.Order) models.MissingRequirements {
	var missing models.MissingRequirements
	if set == nil || order == nil {
		return missing
	}

	for _, f := range set.SubjectFields {
		if !f.Required {
			continue
		}
		if !models.Fills(f.DataType, order.SubjectValues[f.ID]) {
			missing.SubjectFields = append(missing.SubjectFields, models.MissingEntry{
				RequirementID: f.ID,
				Name:          f.Name,
				Origin:        models.OriginAllServices,
			})
		}
	}

	// Search fields are checked per cart item: the same requirement can be
	// satisfied for one item and missing for another.
	for _, item := range order.Items {
		values := order.SearchValues[item.ItemID]
		for _, f := range set.SearchFields {
			if !f.Required || f.ServiceID != item.ServiceID || f.LocationID != item.LocationID {
				continue
			}
			if !models.Fills(f.DataType, values[f.ID]) {
				missing.SearchFields = append(missing.SearchFields, models.MissingEntry{
					RequirementID: f.ID,
					Name:          f.Name,
					Origin:        item.Label(),
				})
			}
		}
	}

	for _, d := range set.Documents {
		if !d.Required {
			continue
		}
		if _, attached := order.Documents[d.ID]; !attached {
			missing.Documents = append(missing.Documents, models.MissingEntry{
				RequirementID: d.ID,
				Name:          d.Name,
				Origin:        documentOrigin(d.Scope),
			})
		}
	}

	return missing
}

func documentOrigin(scope catalogmodels.Scope) string {
	if scope == catalogmodels.ScopePerService {
		return models.OriginPerService
	}
	return models.OriginPerCase
}
