package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/policy"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// AdminService covers the management screens: organizations, teams, user
// role/team administration, escalation review listing.
type AdminService struct {
	orgs        repository.OrganizationRepository
	teams       repository.TeamRepository
	users       repository.UserRepository
	escalations repository.EscalationRepository
}

// AdminDependencies bundles repositories.
type AdminDependencies struct {
	OrganizationRepo repository.OrganizationRepository
	TeamRepo         repository.TeamRepository
	UserRepo         repository.UserRepository
	EscalationRepo   repository.EscalationRepository
}

// NewAdminService constructs the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	return &AdminService{
		orgs:        deps.OrganizationRepo,
		teams:       deps.TeamRepo,
		users:       deps.UserRepo,
		escalations: deps.EscalationRepo,
	}
}

// CreateOrganization registers a tenant.
func (s *AdminService) CreateOrganization(ctx context.Context, actor domain.Actor, name string) (*domain.Organization, error) {
	if err := policy.Allow(actor, policy.TicketView{}, policy.OpManageOrgs); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("organization name required", nil)
	}
	org := &domain.Organization{Name: name, IsActive: true}
	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, apperrors.MapError(err)
	}
	return org, nil
}

// ListOrganizations pages tenants.
func (s *AdminService) ListOrganizations(ctx context.Context, actor domain.Actor, limit, offset int) ([]domain.Organization, error) {
	if err := policy.Allow(actor, policy.TicketView{}, policy.OpManageOrgs); err != nil {
		return nil, err
	}
	return s.orgs.List(ctx, limit, offset)
}

// CreateTeam registers a team under an organization.
func (s *AdminService) CreateTeam(ctx context.Context, actor domain.Actor, organizationID, tag, name, description string) (*domain.Team, error) {
	if err := policy.Allow(actor, policy.TicketView{}, policy.OpManageTeams); err != nil {
		return nil, err
	}
	tag = strings.TrimSpace(tag)
	name = strings.TrimSpace(name)
	if tag == "" || name == "" {
		return nil, apperrors.NewValidationError("team tag and name required", nil)
	}
	if _, err := s.orgs.GetByID(ctx, organizationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("organization", map[string]any{"organization_id": organizationID})
		}
		return nil, apperrors.MapError(err)
	}
	if _, err := s.teams.GetByTag(ctx, tag); err == nil {
		return nil, apperrors.NewConflict("team tag already in use", map[string]any{"tag": tag})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	team := &domain.Team{
		OrganizationID: organizationID,
		Tag:            tag,
		Name:           name,
		Description:    strings.TrimSpace(description),
		IsActive:       true,
	}
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, apperrors.MapError(err)
	}
	return team, nil
}

// ListTeams pages an organization's teams.
func (s *AdminService) ListTeams(ctx context.Context, actor domain.Actor, organizationID string) ([]domain.Team, error) {
	if err := policy.Allow(actor, policy.TicketView{}, policy.OpManageTeams); err != nil {
		return nil, err
	}
	return s.teams.ListByOrganization(ctx, organizationID)
}

// SetUserRole promotes or demotes an account, optionally moving it between
// teams. Only a super admin may mint other admins.
func (s *AdminService) SetUserRole(ctx context.Context, actor domain.Actor, userID string, role domain.Role, teamTag *string) (*domain.User, error) {
	if err := policy.Allow(actor, policy.TicketView{}, policy.OpManageUsers); err != nil {
		return nil, err
	}
	if role.IsAdmin() && actor.Role != domain.RoleSuperAdmin {
		return nil, apperrors.NewAccessDenied("only super admins may grant admin roles")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	if teamTag != nil {
		if _, err := s.teams.GetByTag(ctx, *teamTag); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("unknown team tag", map[string]any{"team_tag": *teamTag})
			}
			return nil, apperrors.MapError(err)
		}
	}

	user.Role = role
	user.TeamTag = teamTag
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ListUsers pages accounts for the user admin table.
func (s *AdminService) ListUsers(ctx context.Context, actor domain.Actor, limit, offset int) ([]domain.User, error) {
	if err := policy.Allow(actor, policy.TicketView{}, policy.OpManageUsers); err != nil {
		return nil, err
	}
	return s.users.List(ctx, limit, offset)
}

// ListEscalations pages escalations for review. Review decisions themselves
// happen elsewhere; this surface is read-only.
func (s *AdminService) ListEscalations(ctx context.Context, actor domain.Actor, status *domain.EscalationStatus, limit, offset int) ([]domain.Escalation, error) {
	if err := policy.Allow(actor, policy.TicketView{}, policy.OpListEscalations); err != nil {
		return nil, err
	}
	return s.escalations.List(ctx, status, limit, offset)
}
