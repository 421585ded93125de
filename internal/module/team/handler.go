package team

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hackhub/server/internal/utils/middleware"
	"github.com/hackhub/server/internal/utils/pagination"
)

// Handler handles HTTP requests for the team registry.
type Handler struct {
	service *Service
}

// NewHandler creates a new team handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers team registry routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	teams := r.Group("/teams")
	{
		teams.POST("", h.CreateTeam)
		teams.GET("", h.ListTeams)
		teams.GET("/:id", h.GetTeam)
		teams.DELETE("/:id", h.DisbandTeam)

		// Requests and invitations
		teams.POST("/:id/requests", h.RequestToJoin)
		teams.POST("/:id/invitations", h.InviteMember)
		teams.POST("/:id/requests/:request_id/respond", h.RespondToRequest)

		// Membership
		teams.POST("/:id/leave", h.LeaveTeam)
		teams.POST("/:id/transfer-leadership", h.TransferLeadership)
	}

	r.GET("/hackathons/:id/standing", h.GetStanding)
}

// ========== Team Handlers ==========

// CreateTeam handles team creation.
//
//	@Summary		Create team
//	@Description	Create a new team with the caller as leader
//	@Tags			Teams
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		CreateTeamRequest	true	"Create team request"
//	@Success		201		{object}	TeamResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		401		{object}	map[string]string
//	@Failure		409		{object}	map[string]string
//	@Router			/teams [post]
func (h *Handler) CreateTeam(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	team, err := h.service.CreateTeam(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, team.ToResponse(true))
}

// GetTeam handles getting a team.
//
//	@Summary		Get team
//	@Description	Get team details with roster; pending requests are visible to the leader only
//	@Tags			Teams
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Team ID"
//	@Success		200	{object}	TeamResponse
//	@Failure		404	{object}	map[string]string
//	@Router			/teams/{id} [get]
func (h *Handler) GetTeam(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	teamID, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	team, err := h.service.GetTeam(c.Request.Context(), teamID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	leader := team.Leader()
	isLeader := leader != nil && leader.UserID == userID
	c.JSON(http.StatusOK, team.ToResponse(isLeader))
}

// ListTeams handles listing teams that still have open slots.
//
//	@Summary		List teams
//	@Description	List active teams looking for members
//	@Tags			Teams
//	@Produce		json
//	@Security		BearerAuth
//	@Param			hackathon_id	query		string	false	"Hackathon ID"
//	@Param			limit			query		int		false	"Limit"		default(20)
//	@Param			offset			query		int		false	"Offset"	default(0)
//	@Success		200				{object}	ListTeamsResponse
//	@Failure		400				{object}	map[string]string
//	@Router			/teams [get]
func (h *Handler) ListTeams(c *gin.Context) {
	var hackathonID *uuid.UUID
	if raw := c.Query("hackathon_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hackathon_id"})
			return
		}
		hackathonID = &id
	}

	page := pagination.FromQuery(c)

	teams, err := h.service.ListTeams(c.Request.Context(), hackathonID, page.Limit, page.Offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp := &ListTeamsResponse{
		Teams:  make([]*TeamResponse, 0, len(teams)),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	for _, t := range teams {
		resp.Teams = append(resp.Teams, t.ToResponse(false))
	}
	c.JSON(http.StatusOK, resp)
}

// DisbandTeam handles disbanding a team.
//
//	@Summary		Disband team
//	@Description	Disband the team, cancel pending requests and release all members. Leader only
//	@Tags			Teams
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Team ID"
//	@Success		204
//	@Failure		403	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Router			/teams/{id} [delete]
func (h *Handler) DisbandTeam(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	teamID, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DisbandTeam(c.Request.Context(), userID, teamID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ========== Request Handlers ==========

// RequestToJoin handles filing a join request.
//
//	@Summary		Request to join
//	@Description	File a pending join request for a team
//	@Tags			Teams
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string			true	"Team ID"
//	@Param			request	body		JoinTeamRequest	false	"Join request"
//	@Success		201		{object}	RequestResponse
//	@Failure		404		{object}	map[string]string
//	@Failure		409		{object}	map[string]string
//	@Router			/teams/{id}/requests [post]
func (h *Handler) RequestToJoin(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	teamID, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	// The message body is optional.
	var req JoinTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.service.RequestToJoin(c.Request.Context(), userID, teamID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, request.ToResponse())
}

// InviteMember handles inviting a user to the team.
//
//	@Summary		Invite member
//	@Description	Invite a user to the team. Leader only
//	@Tags			Teams
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string				true	"Team ID"
//	@Param			request	body		InviteMemberRequest	true	"Invitation"
//	@Success		201		{object}	RequestResponse
//	@Failure		403		{object}	map[string]string
//	@Failure		409		{object}	map[string]string
//	@Router			/teams/{id}/invitations [post]
func (h *Handler) InviteMember(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	teamID, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req InviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.service.InviteMember(c.Request.Context(), userID, teamID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, request.ToResponse())
}

// RespondToRequest handles accepting or rejecting a pending request.
//
//	@Summary		Respond to request
//	@Description	Accept or reject a pending join request or invitation
//	@Tags			Teams
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id			path		string			true	"Team ID"
//	@Param			request_id	path		string			true	"Request ID"
//	@Param			request		body		RespondRequest	true	"Decision"
//	@Success		200			{object}	TeamResponse
//	@Failure		403			{object}	map[string]string
//	@Failure		409			{object}	map[string]string
//	@Failure		410			{object}	map[string]string
//	@Router			/teams/{id}/requests/{request_id}/respond [post]
func (h *Handler) RespondToRequest(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	teamID, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	requestID, ok := h.parseID(c, "request_id")
	if !ok {
		return
	}

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	team, err := h.service.RespondToRequest(c.Request.Context(), userID, teamID, requestID, req.Decision)
	if err != nil {
		h.handleError(c, err)
		return
	}

	leader := team.Leader()
	isLeader := leader != nil && leader.UserID == userID
	c.JSON(http.StatusOK, team.ToResponse(isLeader))
}

// ========== Membership Handlers ==========

// LeaveTeam handles a member leaving the team.
//
//	@Summary		Leave team
//	@Description	Leave the team. The leader must transfer leadership first
//	@Tags			Teams
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Team ID"
//	@Success		204
//	@Failure		403	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Router			/teams/{id}/leave [post]
func (h *Handler) LeaveTeam(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	teamID, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.LeaveTeam(c.Request.Context(), userID, teamID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// TransferLeadership handles handing the leader role to another member.
//
//	@Summary		Transfer leadership
//	@Description	Hand the leader role to another member. Leader only
//	@Tags			Teams
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string						true	"Team ID"
//	@Param			request	body		TransferLeadershipRequest	true	"New leader"
//	@Success		200		{object}	TeamResponse
//	@Failure		403		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Router			/teams/{id}/transfer-leadership [post]
func (h *Handler) TransferLeadership(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	teamID, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req TransferLeadershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	team, err := h.service.TransferLeadership(c.Request.Context(), userID, teamID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, team.ToResponse(true))
}

// GetStanding handles reporting the caller's team situation in a hackathon.
//
//	@Summary		Get team standing
//	@Description	Report whether the caller is registered, teamless, a member or a leader
//	@Tags			Teams
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Hackathon ID"
//	@Success		200	{object}	StandingResponse
//	@Failure		401	{object}	map[string]string
//	@Router			/hackathons/{id}/standing [get]
func (h *Handler) GetStanding(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	hackathonID, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	standing, team, err := h.service.GetStanding(c.Request.Context(), hackathonID, userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp := &StandingResponse{Standing: standing}
	if team != nil {
		resp.Team = team.ToResponse(standing == StandingTeamLeader)
	}
	c.JSON(http.StatusOK, resp)
}

// ========== Helpers ==========

func (h *Handler) getUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}
	return userID, true
}

func (h *Handler) parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrTeamNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "team_not_found"})
	case errors.Is(err, ErrTeamDisbanded):
		c.JSON(http.StatusGone, gin.H{"error": "team_disbanded"})
	case errors.Is(err, ErrRequestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "request_not_found"})
	case errors.Is(err, ErrTeamFull):
		c.JSON(http.StatusConflict, gin.H{"error": "team_full"})
	case errors.Is(err, ErrAlreadyInTeam):
		c.JSON(http.StatusConflict, gin.H{"error": "already_in_team"})
	case errors.Is(err, ErrNotRegistered):
		c.JSON(http.StatusForbidden, gin.H{"error": "not_registered"})
	case errors.Is(err, ErrNotAMember):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_a_member"})
	case errors.Is(err, ErrLeaderCannotLeave):
		c.JSON(http.StatusConflict, gin.H{"error": "leader_cannot_leave"})
	case errors.Is(err, ErrDuplicateRequest):
		c.JSON(http.StatusConflict, gin.H{"error": "duplicate_request"})
	case errors.Is(err, ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "request_already_resolved"})
	case errors.Is(err, ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "not_allowed"})
	case errors.Is(err, ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "concurrent_update"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
