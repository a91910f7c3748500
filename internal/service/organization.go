// internal/service/organization.go
package service

import (
	"context"
	"fmt"

	"github.com/dangerclosesec/pathway/internal/admission"
	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/repository"
	"github.com/google/uuid"
)

type OrganizationService struct {
	repo repository.OrganizationRepositoryIface
}

func NewOrganizationService(repo repository.OrganizationRepositoryIface) *OrganizationService {
	return &OrganizationService{repo: repo}
}

type ListOrganizationsInput struct {
	OrgType model.OrganizationType   `json:"org_type"`
	Status  model.OrganizationStatus `json:"status"`
	Offset  int                      `json:"offset"`
	Limit   int                      `json:"limit"`
}

type ListOrganizationsOutput struct {
	Organizations []*model.Organization `json:"organizations"`
	Total         int64                 `json:"total"`
}

func (s *OrganizationService) List(ctx context.Context, input ListOrganizationsInput) (*ListOrganizationsOutput, error) {
	orgs, total, err := s.repo.FindAllPaginated(ctx,
		repository.OrganizationFilter{OrgType: input.OrgType, Status: input.Status},
		repository.Page{Offset: input.Offset, Limit: input.Limit},
	)
	if err != nil {
		return nil, err
	}
	return &ListOrganizationsOutput{Organizations: orgs, Total: total}, nil
}

func (s *OrganizationService) Get(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	return s.repo.FindByID(ctx, id)
}

type UpdateOrganizationInput struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
	Email    *string `json:"email"`
}

// Update edits the actor's own organization.
func (s *OrganizationService) Update(ctx context.Context, actor admission.Actor, id uuid.UUID, input UpdateOrganizationInput) (*model.Organization, error) {
	if !actor.MemberOf(id) {
		return nil, domain.ErrNotAuthorized
	}
	org, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrInvalidInput)
		}
		org.Name = *input.Name
	}
	if input.Location != nil {
		org.Location = *input.Location
	}
	if input.Email != nil {
		org.Email = *input.Email
	}
	if err := s.repo.Update(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

// Members lists the users acting for an organization. Visible to its
// members and to admins.
func (s *OrganizationService) Members(ctx context.Context, actor admission.Actor, id uuid.UUID) ([]*model.OrganizationUser, error) {
	if actor.Role != model.RoleAdmin && !actor.MemberOf(id) {
		return nil, domain.ErrNotAuthorized
	}
	return s.repo.FindOrganizationUsers(ctx, id)
}

// SetStatus activates or suspends an organization.
func (s *OrganizationService) SetStatus(ctx context.Context, id uuid.UUID, status model.OrganizationStatus) (*model.Organization, error) {
	switch status {
	case model.OrgStatusActive, model.OrgStatusSuspended:
	default:
		return nil, fmt.Errorf("%w: unsupported status %q", domain.ErrInvalidInput, status)
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}
