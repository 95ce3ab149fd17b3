package service

import (
	"context"
	"fmt"
	"log/slog"

	"docforge/internal/domain"
	"docforge/internal/domain/repositories"
	"docforge/internal/domain/services"
)

// teamAuthorizer implements the Authorizer capability on team membership.
type teamAuthorizer struct {
	memberRepo repositories.TeamMemberRepository
	logger     *slog.Logger
}

// NewTeamAuthorizer creates an authorizer backed by the team member table.
func NewTeamAuthorizer(memberRepo repositories.TeamMemberRepository, logger *slog.Logger) services.Authorizer {
	return &teamAuthorizer{
		memberRepo: memberRepo,
		logger:     logger,
	}
}

// MayAct returns nil when the user belongs to the team (and holds one of
// the given roles, if any are named), domain.ErrForbidden otherwise.
func (a *teamAuthorizer) MayAct(ctx context.Context, userID, teamID string, roles ...string) error {
	ok, err := a.memberRepo.IsMember(ctx, userID, teamID, roles...)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !ok {
		a.logger.Debug("membership denied", "user_id", userID, "team_id", teamID)
		return fmt.Errorf("user is not a member of team %s: %w", teamID, domain.ErrForbidden)
	}
	return nil
}
