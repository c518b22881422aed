package httpserver

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/oclus/internal/server/services"
	"github.com/gin-gonic/gin"
)

func groupID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Kind: "invalid_data", Field: "id"})
		return 0, false
	}
	return id, true
}

func (h *handlers) createGroup(c *gin.Context) {
	status, ok := requireAuth(c)
	if !ok {
		return
	}
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	group, err := h.Groups.Create(c.Request.Context(), status.UserID(), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGroupResponse(group))
}

// group shows the full record to its owner and only the name to others.
func (h *handlers) group(c *gin.Context) {
	status, ok := requireAuth(c)
	if !ok {
		return
	}
	id, ok := groupID(c)
	if !ok {
		return
	}

	group, err := h.Groups.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if group.OwnerID != status.UserID() {
		c.JSON(http.StatusOK, publicGroup{Name: group.Name})
		return
	}
	c.JSON(http.StatusOK, newGroupResponse(group))
}

func (h *handlers) updateGroup(c *gin.Context) {
	status, ok := requireAuth(c)
	if !ok {
		return
	}
	id, ok := groupID(c)
	if !ok {
		return
	}
	var req updateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	group, err := h.Groups.Update(c.Request.Context(), status.UserID(), id, services.GroupUpdate{
		Name:    req.Name,
		OwnerID: req.OwnerID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGroupResponse(group))
}

func (h *handlers) deleteGroup(c *gin.Context) {
	status, ok := requireAuth(c)
	if !ok {
		return
	}
	id, ok := groupID(c)
	if !ok {
		return
	}
	if err := h.Groups.Delete(c.Request.Context(), status.UserID(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
