// internal/service/offering.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dangerclosesec/pathway/internal/admission"
	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type OfferingService struct {
	repo         repository.OfferingRepositoryIface
	cacheService *CacheService
	validate     *validator.Validate
	now          func() time.Time
}

func NewOfferingService(repo repository.OfferingRepositoryIface, cacheService *CacheService) *OfferingService {
	return &OfferingService{
		repo:         repo,
		cacheService: cacheService,
		validate:     validator.New(),
		now:          time.Now,
	}
}

// OfferingInput holds the fields of a course or job. Course fields are
// ignored for jobs and the other way round.
type OfferingInput struct {
	Title          string     `json:"title" validate:"required,max=200"`
	Description    string     `json:"description"`
	ProgramType    string     `json:"program_type"`
	AcademicLevel  string     `json:"academic_level"`
	Faculty        string     `json:"faculty"`
	Duration       string     `json:"duration"`
	Intake         int        `json:"intake" validate:"gte=0"`
	JobType        string     `json:"job_type"`
	Location       string     `json:"location"`
	Salary         string     `json:"salary"`
	Requirements   []string   `json:"requirements"`
	Qualifications []string   `json:"qualifications"`
	Deadline       *time.Time `json:"deadline"`
}

// Create publishes an offering for the actor's organization. Institutes
// publish courses and companies publish jobs.
func (s *OfferingService) Create(ctx context.Context, actor admission.Actor, input OfferingInput) (*model.Offering, error) {
	if !actor.Role.IsOrganization() || actor.OrganizationID == nil {
		return nil, domain.ErrNotAuthorized
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	if input.Deadline != nil && !input.Deadline.After(s.now()) {
		return nil, domain.ErrInvalidDeadline
	}

	offering := &model.Offering{
		OrganizationID: *actor.OrganizationID,
		Kind:           kindForRole(actor.Role),
		Status:         model.OfferingActive,
		CreatedByID:    actor.ID,
	}
	applyOfferingInput(offering, input)

	if err := s.repo.Create(ctx, offering); err != nil {
		return nil, err
	}
	return offering, nil
}

// Update replaces the editable fields of an offering owned by the actor's
// organization.
func (s *OfferingService) Update(ctx context.Context, actor admission.Actor, id uuid.UUID, input OfferingInput) (*model.Offering, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}

	offering, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if input.Deadline != nil && !input.Deadline.After(s.now()) {
		return nil, domain.ErrInvalidDeadline
	}

	applyOfferingInput(offering, input)
	if err := s.repo.Update(ctx, offering); err != nil {
		return nil, err
	}
	s.forget(ctx, id)
	return offering, nil
}

// Close stops an offering from accepting applications. Existing
// applications are unaffected.
func (s *OfferingService) Close(ctx context.Context, actor admission.Actor, id uuid.UUID) (*model.Offering, error) {
	offering, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if offering.Status == model.OfferingClosed {
		return offering, nil
	}
	if _, err := s.repo.Close(ctx, []uuid.UUID{id}); err != nil {
		return nil, err
	}
	offering.Status = model.OfferingClosed
	s.forget(ctx, id)
	return offering, nil
}

// Delete removes an offering. Admins may delete any offering.
func (s *OfferingService) Delete(ctx context.Context, actor admission.Actor, id uuid.UUID) error {
	if actor.Role != model.RoleAdmin {
		if _, err := s.owned(ctx, actor, id); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.forget(ctx, id)
	return nil
}

// Get returns an offering, served from cache when possible.
func (s *OfferingService) Get(ctx context.Context, id uuid.UUID) (*model.Offering, error) {
	var offering model.Offering
	err := s.cacheService.GetOrSet(ctx, offeringCacheKey(id), &offering, func() (interface{}, error) {
		return s.repo.FindByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &offering, nil
}

type ListOfferingsInput struct {
	OrganizationID *uuid.UUID           `json:"organization_id"`
	Kind           model.OfferingKind   `json:"kind"`
	Status         model.OfferingStatus `json:"status"`
	Search         string               `json:"search"`
	Offset         int                  `json:"offset"`
	Limit          int                  `json:"limit"`
}

type ListOfferingsOutput struct {
	Offerings []*model.Offering `json:"offerings"`
	Total     int64             `json:"total"`
}

func (s *OfferingService) List(ctx context.Context, input ListOfferingsInput) (*ListOfferingsOutput, error) {
	switch input.Kind {
	case "", model.OfferingCourse, model.OfferingJob:
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidInput, input.Kind)
	}

	offerings, total, err := s.repo.Find(ctx, repository.OfferingFilter{
		OrganizationID: input.OrganizationID,
		Kind:           input.Kind,
		Status:         input.Status,
		Search:         strings.TrimSpace(input.Search),
	}, repository.Page{Offset: input.Offset, Limit: input.Limit})
	if err != nil {
		return nil, err
	}
	return &ListOfferingsOutput{Offerings: offerings, Total: total}, nil
}

func (s *OfferingService) owned(ctx context.Context, actor admission.Actor, id uuid.UUID) (*model.Offering, error) {
	offering, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.MemberOf(offering.OrganizationID) {
		return nil, domain.ErrNotAuthorized
	}
	return offering, nil
}

func (s *OfferingService) forget(ctx context.Context, id uuid.UUID) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.Delete(ctx, offeringCacheKey(id)); err != nil && !errors.Is(err, domain.ErrNotFound) {
		slog.WarnContext(ctx, "failed to invalidate cached offering", "offering_id", id, "error", err)
	}
}

func offeringCacheKey(id uuid.UUID) string {
	return "offering:" + id.String()
}

func kindForRole(r model.Role) model.OfferingKind {
	if r == model.RoleCompany {
		return model.OfferingJob
	}
	return model.OfferingCourse
}

func applyOfferingInput(o *model.Offering, in OfferingInput) {
	o.Title = strings.TrimSpace(in.Title)
	o.Description = in.Description
	o.Location = in.Location
	o.Requirements = in.Requirements
	o.Qualifications = in.Qualifications
	o.Deadline = in.Deadline

	switch o.Kind {
	case model.OfferingCourse:
		o.ProgramType = in.ProgramType
		o.AcademicLevel = in.AcademicLevel
		o.Faculty = in.Faculty
		o.Duration = in.Duration
		o.Intake = in.Intake
	case model.OfferingJob:
		o.JobType = in.JobType
		o.Salary = in.Salary
	}
}
