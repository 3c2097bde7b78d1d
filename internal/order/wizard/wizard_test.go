package wizard

import (
	"testing"

	"github.com/stretchr/testify/suite"

	catalogmodels "clearcheck/internal/catalog/models"
	"clearcheck/internal/order/models"
	id "clearcheck/pkg/domain"
	derrors "clearcheck/pkg/domain-errors"
)

type WizardSuite struct {
	suite.Suite
	order *models.Order
	set   *models.ResolvedRequirementSet
}

func TestWizardSuite(t *testing.T) {
	suite.Run(t, new(WizardSuite))
}

func (s *WizardSuite) SetupTest() {
	s.order = &models.Order{
		ID: id.NewOrderID(),
		Items: []models.ServiceItem{
			{ItemID: id.NewItemID(), ServiceID: "bg-check", ServiceName: "Background Check", LocationID: "us-ca", LocationName: "California"},
		},
		SubjectValues: models.Values{},
		SearchValues:  map[id.ItemID]models.Values{},
		Documents:     map[id.RequirementID]models.DocumentRef{},
	}
	s.set = &models.ResolvedRequirementSet{
		SubjectFields: []catalogmodels.Requirement{
			{ID: "req-name", Name: "Full name", Type: catalogmodels.TypeField, DataType: catalogmodels.KindText, Scope: catalogmodels.ScopeSubject, Required: true},
		},
	}
}

func (s *WizardSuite) TestValidate() {
	s.Run("services stage requires at least one item", func() {
		empty := &models.Order{ID: id.NewOrderID()}
		err := Validate(StageServices, empty)
		s.True(derrors.HasCode(err, derrors.CodeBadRequest))
		s.NoError(Validate(StageServices, s.order))
	})

	s.Run("info stages never block forward navigation", func() {
		s.NoError(Validate(StageSubjectInfo, s.order), "required subject field is empty, still passes")
		s.NoError(Validate(StageSearchDetails, s.order))
		s.NoError(Validate(StageReview, s.order))
	})
}

func (s *WizardSuite) TestIsComplete() {
	s.False(IsComplete(StageSubjectInfo, s.order, s.set))
	s.True(IsComplete(StageSearchDetails, s.order, s.set), "no search fields resolved")
	s.False(IsComplete(StageReview, s.order, s.set))

	s.order.SubjectValues["req-name"] = models.Scalar("Ada Lovelace")
	s.True(IsComplete(StageSubjectInfo, s.order, s.set))
	s.True(IsComplete(StageReview, s.order, s.set))
}

func (s *WizardSuite) TestStageString() {
	s.Equal("services", StageServices.String())
	s.Equal("review", StageReview.String())
	s.Equal("unknown", Stage(9).String())
}
