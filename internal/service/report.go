// internal/service/report.go
package service

import (
	"context"
	"fmt"

	"github.com/dangerclosesec/pathway/internal/admission"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/repository"
	"github.com/google/uuid"
)

type ReportService struct {
	applications  repository.ApplicationRepositoryIface
	users         repository.UserRepositoryIface
	offerings     repository.OfferingRepositoryIface
	organizations repository.OrganizationRepositoryIface
}

func NewReportService(
	applications repository.ApplicationRepositoryIface,
	users repository.UserRepositoryIface,
	offerings repository.OfferingRepositoryIface,
	organizations repository.OrganizationRepositoryIface,
) *ReportService {
	return &ReportService{
		applications:  applications,
		users:         users,
		offerings:     offerings,
		organizations: organizations,
	}
}

// PlatformReport is the admin overview of the whole platform.
type PlatformReport struct {
	Applications        admission.Summary                  `json:"applications"`
	UsersByRole         map[model.Role]int64               `json:"users_by_role"`
	OfferingsByKind     map[model.OfferingKind]int64       `json:"offerings_by_kind"`
	OrganizationsByType map[model.OrganizationType]int64   `json:"organizations_by_type"`
}

func (s *ReportService) Platform(ctx context.Context) (*PlatformReport, error) {
	apps, err := s.applications.Find(ctx, repository.ApplicationFilter{})
	if err != nil {
		return nil, storeFailure(err)
	}

	users, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting users: %w", err)
	}

	offerings, err := s.offerings.CountByKind(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting offerings: %w", err)
	}

	orgs := make(map[model.OrganizationType]int64, 2)
	for _, t := range []model.OrganizationType{model.OrgTypeInstitute, model.OrgTypeCompany} {
		_, total, err := s.organizations.FindAllPaginated(ctx, repository.OrganizationFilter{OrgType: t}, repository.Page{Limit: 1})
		if err != nil {
			return nil, fmt.Errorf("counting %s organizations: %w", t, err)
		}
		orgs[t] = total
	}

	return &PlatformReport{
		Applications:        admission.Aggregate(apps),
		UsersByRole:         users,
		OfferingsByKind:     offerings,
		OrganizationsByType: orgs,
	}, nil
}

// Organization summarises the applications one organization received.
func (s *ReportService) Organization(ctx context.Context, orgID uuid.UUID) (admission.Summary, error) {
	apps, err := s.applications.Find(ctx, repository.ApplicationFilter{OrganizationID: &orgID})
	if err != nil {
		return admission.Summary{}, storeFailure(err)
	}
	return admission.Aggregate(apps), nil
}
