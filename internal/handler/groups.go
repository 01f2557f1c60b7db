package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/readory/readory/internal/apierr"
	"github.com/readory/readory/internal/middleware"
	"github.com/readory/readory/internal/model"
	"github.com/readory/readory/internal/repository"
)

// GroupHandler exposes the reading-group HTTP surface: creating groups,
// joining and leaving them, and reading message history.  Mutating routes
// sit behind both the bearer middleware (who) and the session middleware
// (CSRF-proof how); history is a read and needs only the bearer.
type GroupHandler struct {
	Groups   *repository.GroupRepo
	Messages *repository.MessageRepo
}

func NewGroupHandler(g *repository.GroupRepo, m *repository.MessageRepo) *GroupHandler {
	return &GroupHandler{Groups: g, Messages: m}
}

type createGroupReq struct {
	Name      string `json:"name"`
	BookTitle string `json:"book_title"`
}

type groupResp struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	BookTitle string    `json:"book_title,omitempty"`
	CreatedBy uint64    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func toGroupResp(g model.GroupChat) groupResp {
	return groupResp{ID: g.ID, Name: g.Name, BookTitle: g.BookTitle, CreatedBy: g.CreatedBy, CreatedAt: g.CreatedAt}
}

// groupIDParam parses the :id path parameter.
func groupIDParam(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apierr.New(http.StatusBadRequest, apierr.CodeValidationError, "invalid group id")
	}
	return id, nil
}

// Create makes a new reading group with the caller as first member.
func (h *GroupHandler) Create(c echo.Context) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return apierr.Respond(c, apierr.New(http.StatusUnauthorized, apierr.CodeAuthRequired, "unauthorized"))
	}
	var req createGroupReq
	if err := c.Bind(&req); err != nil {
		return apierr.Respond(c, apierr.New(http.StatusBadRequest, apierr.CodeValidationError, "invalid body"))
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return apierr.Respond(c, apierr.New(http.StatusBadRequest, apierr.CodeValidationError, "name required"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	g, err := h.Groups.Create(ctx, req.Name, strings.TrimSpace(req.BookTitle), uid)
	if err != nil {
		return apierr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, toGroupResp(g))
}

// Join adds a membership row for the caller.  Joining twice answers 409,
// joining a missing group 404.
func (h *GroupHandler) Join(c echo.Context) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return apierr.Respond(c, apierr.New(http.StatusUnauthorized, apierr.CodeAuthRequired, "unauthorized"))
	}
	gid, err := groupIDParam(c)
	if err != nil {
		return apierr.Respond(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	switch err := h.Groups.AddMember(ctx, gid, uid); err {
	case nil:
		return c.NoContent(http.StatusNoContent)
	case repository.ErrConflict:
		return apierr.Respond(c, apierr.New(http.StatusConflict, apierr.CodeConflict, "already a member"))
	case repository.ErrNotFound:
		return apierr.Respond(c, apierr.New(http.StatusNotFound, apierr.CodeNotFound, "group not found"))
	default:
		return apierr.Respond(c, err)
	}
}

// Leave removes the caller's membership row.  Leaving a group the caller is
// not in is a no-op, like logging out twice.
func (h *GroupHandler) Leave(c echo.Context) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return apierr.Respond(c, apierr.New(http.StatusUnauthorized, apierr.CodeAuthRequired, "unauthorized"))
	}
	gid, err := groupIDParam(c)
	if err != nil {
		return apierr.Respond(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Groups.RemoveMember(ctx, gid, uid); err != nil {
		return apierr.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// History returns persisted messages for a group the caller belongs to.
// Anything broadcast over the realtime gateway must be retrievable here
// with identical content and sender attribution.
func (h *GroupHandler) History(c echo.Context) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return apierr.Respond(c, apierr.New(http.StatusUnauthorized, apierr.CodeAuthRequired, "unauthorized"))
	}
	gid, err := groupIDParam(c)
	if err != nil {
		return apierr.Respond(c, err)
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	member, err := h.Groups.IsMember(ctx, gid, uid)
	if err != nil {
		return apierr.Respond(c, err)
	}
	if !member {
		return apierr.Respond(c, apierr.New(http.StatusForbidden, apierr.CodeAuthRequired, "not a group member"))
	}

	msgs, err := h.Messages.ListByGroup(ctx, gid, limit)
	if err != nil {
		return apierr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": msgs})
}
