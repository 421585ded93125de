package hackathon

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hackhub/server/internal/utils/middleware"
	"github.com/hackhub/server/internal/utils/pagination"
)

// Handler handles HTTP requests for hackathons.
type Handler struct {
	service *Service
}

// NewHandler creates a new hackathon handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers hackathon routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	hackathons := r.Group("/hackathons")
	{
		hackathons.POST("", h.Create)
		hackathons.GET("", h.List)
		hackathons.GET("/:id", h.Get)
		hackathons.POST("/:id/register", h.Register)
		hackathons.GET("/:id/participants", h.ListParticipants)
	}
}

// Create handles hackathon creation.
//
//	@Summary		Create hackathon
//	@Description	Create a new hackathon
//	@Tags			Hackathons
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		CreateHackathonRequest	true	"Create hackathon request"
//	@Success		201		{object}	HackathonResponse
//	@Failure		400		{object}	map[string]string
//	@Router			/hackathons [post]
func (h *Handler) Create(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req CreateHackathonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hackathon, err := h.service.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, hackathon.ToResponse())
}

// Get handles getting a hackathon.
//
//	@Summary		Get hackathon
//	@Description	Get hackathon details
//	@Tags			Hackathons
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Hackathon ID"
//	@Success		200	{object}	HackathonResponse
//	@Failure		404	{object}	map[string]string
//	@Router			/hackathons/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	hackathon, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, hackathon.ToResponse())
}

// List handles listing hackathons.
//
//	@Summary		List hackathons
//	@Description	List hackathons, newest first
//	@Tags			Hackathons
//	@Produce		json
//	@Security		BearerAuth
//	@Param			limit	query		int	false	"Limit"		default(20)
//	@Param			offset	query		int	false	"Offset"	default(0)
//	@Success		200		{object}	ListHackathonsResponse
//	@Router			/hackathons [get]
func (h *Handler) List(c *gin.Context) {
	page := pagination.FromQuery(c)

	hackathons, total, err := h.service.List(c.Request.Context(), page.Limit, page.Offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp := &ListHackathonsResponse{
		Hackathons: make([]*HackathonResponse, 0, len(hackathons)),
		Total:      total,
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	for _, hk := range hackathons {
		resp.Hackathons = append(resp.Hackathons, hk.ToResponse())
	}
	c.JSON(http.StatusOK, resp)
}

// Register handles participant registration.
//
//	@Summary		Register for hackathon
//	@Description	Register the caller as a participant
//	@Tags			Hackathons
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string			true	"Hackathon ID"
//	@Param			request	body		RegisterRequest	false	"Participant profile"
//	@Success		201		{object}	ParticipantResponse
//	@Failure		403		{object}	map[string]string
//	@Failure		409		{object}	map[string]string
//	@Router			/hackathons/{id}/register [post]
func (h *Handler) Register(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	id, ok := h.parseID(c)
	if !ok {
		return
	}

	// The profile body is optional.
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participation, err := h.service.Register(c.Request.Context(), userID, id, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ToParticipantResponse(participation))
}

// ListParticipants handles listing a hackathon's participants.
//
//	@Summary		List participants
//	@Description	List approved participants, optionally only those looking for a team
//	@Tags			Hackathons
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id				path		string	true	"Hackathon ID"
//	@Param			looking_only	query		bool	false	"Only participants looking for a team"
//	@Param			limit			query		int		false	"Limit"		default(20)
//	@Param			offset			query		int		false	"Offset"	default(0)
//	@Success		200				{object}	ListParticipantsResponse
//	@Failure		404				{object}	map[string]string
//	@Router			/hackathons/{id}/participants [get]
func (h *Handler) ListParticipants(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	lookingOnly := c.Query("looking_only") == "true"
	page := pagination.FromQuery(c)

	participants, err := h.service.ListParticipants(c.Request.Context(), id, lookingOnly, page.Limit, page.Offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp := &ListParticipantsResponse{
		Participants: make([]*ParticipantResponse, 0, len(participants)),
		Limit:        page.Limit,
		Offset:       page.Offset,
	}
	for _, p := range participants {
		resp.Participants = append(resp.Participants, ToParticipantResponse(p))
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

func (h *Handler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrHackathonNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "hackathon_not_found"})
	case errors.Is(err, ErrRegistrationClosed):
		c.JSON(http.StatusForbidden, gin.H{"error": "registration_closed"})
	case errors.Is(err, ErrAlreadyRegistered):
		c.JSON(http.StatusConflict, gin.H{"error": "already_registered"})
	case errors.Is(err, ErrInvalidWindow):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_window"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
