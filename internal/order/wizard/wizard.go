// Package wizard models the four-stage order intake flow and its
// navigation rules.
package wizard

import (
	"clearcheck/internal/order/models"
	"clearcheck/internal/order/satisfaction"
	derrors "clearcheck/pkg/domain-errors"
)

// Stage is one step of the intake flow.
type Stage int

const (
	StageServices Stage = iota + 1
	StageSubjectInfo
	StageSearchDetails
	StageReview
)

func (s Stage) String() string {
	switch s {
	case StageServices:
		return "services"
	case StageSubjectInfo:
		return "subject_info"
	case StageSearchDetails:
		return "search_details"
	case StageReview:
		return "review"
	default:
		return "unknown"
	}
}

// Validate decides whether the order may advance past the given stage.
// Only the services stage can block: an order needs at least one item.
// Incomplete fields on the info stages never block forward navigation;
// they resurface at submission as missing requirements.
func Validate(stage Stage, order *models.Order) error {
	if stage == StageServices && (order == nil || len(order.Items) == 0) {
		return derrors.New(derrors.CodeBadRequest, "order has no service items")
	}
	return nil
}

// IsComplete reports whether a stage shows a completion check mark. The
// indicator is advisory; it reuses the satisfaction check so the marks
// always agree with what submission would report.
func IsComplete(stage Stage, order *models.Order, set *models.ResolvedRequirementSet) bool {
	switch stage {
	case StageServices:
		return order != nil && len(order.Items) > 0
	case StageSubjectInfo:
		missing := satisfaction.CheckMissing(set, order)
		return len(missing.SubjectFields) == 0
	case StageSearchDetails:
		missing := satisfaction.CheckMissing(set, order)
		return len(missing.SearchFields) == 0 && len(missing.Documents) == 0
	case StageReview:
		return satisfaction.CheckMissing(set, order).IsValid()
	default:
		return false
	}
}
