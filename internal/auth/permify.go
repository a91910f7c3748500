// internal/auth/permify.go

package auth

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	v1 "buf.build/gen/go/permifyco/permify/protocolbuffers/go/base/v1"
	permify_grpc "github.com/Permify/permify-go/grpc"

	"github.com/dangerclosesec/pathway/internal/admission"
	"github.com/dangerclosesec/pathway/internal/model"
)

// Entity and relation names used in the permission schema.
const (
	EntityUser         = "user"
	EntityOrganization = "organization"
	EntityApplication  = "application"

	RelationApplicant    = "applicant"
	RelationOrganization = "organization"
	RelationOwner        = "owner"
	RelationMember       = "member"
)

type PermifyService struct {
	client        *permify_grpc.Client
	tenant        string
	schemaVersion string
	snapToken     string
	depth         int32
}

type PermifyOption func(*PermifyService)

func WithTenant(tenant string) PermifyOption {
	return func(s *PermifyService) {
		s.tenant = tenant
	}
}

// WithSchemaVersion sets the schema version for the Permify service
func WithSchemaVersion(schemaVersion string) PermifyOption {
	return func(s *PermifyService) {
		s.schemaVersion = schemaVersion
	}
}

// WithSnapToken sets the snap token for the Permify service
func WithSnapToken(snapToken string) PermifyOption {
	return func(s *PermifyService) {
		s.snapToken = snapToken
	}
}

// WithDepth sets the depth for the Permify service
func WithDepth(depth int32) PermifyOption {
	return func(s *PermifyService) {
		s.depth = depth
	}
}

// NewPermifyService creates a new Permify service
func NewPermifyService(host string, options ...PermifyOption) (*PermifyService, error) {
	client, err := permify_grpc.NewClient(
		permify_grpc.Config{
			Endpoint: host,
		},
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)

	if err != nil {
		return nil, err
	}

	service := &PermifyService{client: client, depth: 50}
	for _, o := range options {
		o(service)
	}

	if service.tenant == "" {
		service.tenant = "t1"
	}

	return service, nil
}

type Resource struct {
	Type string
	ID   string
}

type Entity Resource
type Subject Resource

// CheckPermission checks if a subject has a permission on an entity
func (s *PermifyService) CheckPermission(ctx context.Context, entity Entity, permission string, subject Subject) (bool, error) {
	cr, err := s.client.Permission.Check(ctx, &v1.PermissionCheckRequest{
		TenantId: s.tenant,
		Metadata: &v1.PermissionCheckRequestMetadata{
			SnapToken:     s.snapToken,
			SchemaVersion: s.schemaVersion,
			Depth:         s.depth,
		},
		Entity: &v1.Entity{
			Type: entity.Type,
			Id:   entity.ID,
		},
		Permission: permission,
		Subject: &v1.Subject{
			Type: subject.Type,
			Id:   subject.ID,
		},
	})
	if err != nil {
		return false, err
	}

	return cr.Can == v1.CheckResult_CHECK_RESULT_ALLOWED, nil
}

func (s *PermifyService) WriteRelationships(ctx context.Context, tuples ...*v1.Tuple) error {
	if len(tuples) == 0 {
		return nil
	}
	_, err := s.client.Data.WriteRelationships(ctx, &v1.RelationshipWriteRequest{
		TenantId: s.tenant,
		Metadata: &v1.RelationshipWriteRequestMetadata{
			SchemaVersion: s.schemaVersion,
		},
		Tuples: tuples,
	})
	return err
}

func (s *PermifyService) DeleteRelationship(ctx context.Context, entity Entity, relation string, subject Subject) error {
	_, err := s.client.Data.DeleteRelationships(ctx, &v1.RelationshipDeleteRequest{
		TenantId: s.tenant,
		Filter: &v1.TupleFilter{
			Entity: &v1.EntityFilter{
				Type: entity.Type,
				Ids:  []string{entity.ID},
			},
			Relation: relation,
			Subject: &v1.SubjectFilter{
				Type: subject.Type,
				Ids:  []string{subject.ID},
			},
		},
	})
	return err
}

// WriteSchema uploads a schema and returns the version Permify assigned. The
// service uses that version for subsequent calls.
func (s *PermifyService) WriteSchema(ctx context.Context, schema string) (string, error) {
	resp, err := s.client.Schema.Write(ctx, &v1.SchemaWriteRequest{
		TenantId: s.tenant,
		Schema:   schema,
	})
	if err != nil {
		return "", fmt.Errorf("writing permission schema: %w", err)
	}
	s.schemaVersion = resp.GetSchemaVersion()
	return s.schemaVersion, nil
}

func tuple(entity Entity, relation string, subject Subject) *v1.Tuple {
	return &v1.Tuple{
		Entity:   &v1.Entity{Type: entity.Type, Id: entity.ID},
		Relation: relation,
		Subject:  &v1.Subject{Type: subject.Type, Id: subject.ID},
	}
}

// Authorizer answers lifecycle permission checks from Permify relationships.
// Permission names in the schema match admission event names.
type Authorizer struct {
	permify *PermifyService
}

func NewAuthorizer(permify *PermifyService) *Authorizer {
	return &Authorizer{permify: permify}
}

func (a *Authorizer) CanTransition(ctx context.Context, actor admission.Actor, event admission.Event, app *model.Application) (bool, error) {
	return a.permify.CheckPermission(ctx,
		Entity{Type: EntityApplication, ID: app.ID.String()},
		string(event),
		Subject{Type: EntityUser, ID: actor.ID.String()},
	)
}

// RecordApplication links a new application to its applicant and organization.
func (a *Authorizer) RecordApplication(ctx context.Context, app *model.Application) error {
	entity := Entity{Type: EntityApplication, ID: app.ID.String()}
	return a.permify.WriteRelationships(ctx,
		tuple(entity, RelationApplicant, Subject{Type: EntityUser, ID: app.ApplicantID.String()}),
		tuple(entity, RelationOrganization, Subject{Type: EntityOrganization, ID: app.OrganizationID.String()}),
	)
}

// RecordMembership grants a user a role in an organization.
func (a *Authorizer) RecordMembership(ctx context.Context, orgID, userID string, role string) error {
	relation := RelationMember
	if role == model.MemberRoleOwner {
		relation = RelationOwner
	}
	return a.permify.WriteRelationships(ctx,
		tuple(Entity{Type: EntityOrganization, ID: orgID}, relation, Subject{Type: EntityUser, ID: userID}),
	)
}
