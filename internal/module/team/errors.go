package team

import "errors"

// Domain errors for the team registry.
var (
	// Team errors
	ErrTeamNotFound  = errors.New("team not found")
	ErrTeamDisbanded = errors.New("team has been disbanded")
	ErrTeamFull      = errors.New("team is full")

	// Membership errors
	ErrAlreadyInTeam     = errors.New("user is already in a team for this hackathon")
	ErrNotRegistered     = errors.New("user is not registered for this hackathon")
	ErrNotAMember        = errors.New("user is not a member of this team")
	ErrLeaderCannotLeave = errors.New("leader must transfer leadership before leaving")

	// Request errors
	ErrRequestNotFound   = errors.New("request not found")
	ErrDuplicateRequest  = errors.New("a pending request already exists")
	ErrInvalidTransition = errors.New("request has already been resolved")

	// Authorization errors
	ErrUnauthorized = errors.New("caller is not allowed to perform this operation")

	// ErrVersionConflict signals a lost race on the version-guarded write.
	// Guarded operations retry a bounded number of times before surfacing
	// it; the accept path maps exhaustion to ErrTeamFull instead.
	ErrVersionConflict = errors.New("concurrent team update")
)
