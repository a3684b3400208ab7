// AngelaMos | 2026
// errors.go

package team

import (
	"github.com/cosmicteams/cosmic-backend/internal/core"
)

// Invariant violations surface as AppError values so handlers can hand
// them straight to core.JSONError.
var (
	ErrNameTaken           = core.ConflictError("team name is already taken")
	ErrAlreadyLeadsTeam    = core.ConflictError("you already lead a team")
	ErrAlreadyOnTeam       = core.ConflictError("user already belongs to a team")
	ErrAlreadyMember       = core.ConflictError("user is already a member of this team")
	ErrDuplicateInvitation = core.ConflictError("an invitation for this user is already pending")
	ErrLeaderCannotLeave   = core.ConflictError("the leader must transfer leadership or disband the team")
	ErrCannotKickLeader    = core.ConflictError("the team leader cannot be kicked")
	ErrAlreadyLeader       = core.ConflictError("user is already the team leader")

	ErrNotAMember         = core.NotFoundError("team member")
	ErrTeamNotFound       = core.NotFoundError("team")
	ErrInvitationNotFound = core.NotFoundError("invitation")

	ErrPermissionDenied = core.ForbiddenError("only the team leader or an admin can do that")
	ErrCannotCreateTeam = core.ForbiddenError("you are not allowed to create a team")
)
