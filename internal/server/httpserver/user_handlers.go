package httpserver

import (
	"net/http"

	"github.com/dmitrijs2005/oclus/internal/common"
	"github.com/dmitrijs2005/oclus/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *handlers) me(c *gin.Context) {
	status, ok := requireAuth(c)
	if !ok {
		return
	}
	user, err := h.Users.Get(c.Request.Context(), status.UserID())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPrivateProfile(user))
}

func (h *handlers) user(c *gin.Context) {
	if _, ok := requireAuth(c); !ok {
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(c, common.ErrorNotFound)
		return
	}
	user, err := h.Users.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, publicProfile{ID: user.ID, Username: user.UserName})
}

func (h *handlers) updateMe(c *gin.Context) {
	status, ok := requireStrongAuth(c)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		req.Email = &email
	}

	user, err := h.Users.Update(c.Request.Context(), status.UserID(), services.UserUpdate{
		Email:    req.Email,
		UserName: req.Username,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPrivateProfile(user))
}

func (h *handlers) changePassword(c *gin.Context) {
	status, ok := requireStrongAuth(c)
	if !ok {
		return
	}
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	if err := h.Users.ChangePassword(c.Request.Context(), status.UserID(), req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) deleteMe(c *gin.Context) {
	status, ok := requireStrongAuth(c)
	if !ok {
		return
	}
	if err := h.Users.Delete(c.Request.Context(), status.UserID()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
