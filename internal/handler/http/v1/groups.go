package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// @Summary List groups of an issue
// @Tags Groups
// @Accept json
// @Produce json
// @Param issueId query string true "Issue ID"
// @Success 200 {array} GroupResponse
// @Failure 400 {object} map[string]string "Missing issueId"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /groups [get]
func (h *Handler) listGroups(c *gin.Context) {
	issueID := c.Query("issueId")
	if issueID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "issueId is required"})
		return
	}
	log := h.logger.WithField("method", "listGroups").WithField("issue_id", issueID)

	groups, err := h.groupService.ListGroups(c.Request.Context(), issueID)
	if err != nil {
		log.WithError(err).Error("Failed to list groups from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, ModelsToGroupResponses(groups))
}

// @Summary Create a group
// @Description Create a discussion group for an issue. The first entry of members becomes the creator and first member.
// @Tags Groups
// @Accept json
// @Produce json
// @Param group body CreateGroupRequest true "Group creation request"
// @Success 201 {object} GroupResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 404 {object} map[string]string "Issue not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /groups [post]
func (h *Handler) createGroup(c *gin.Context) {
	var input CreateGroupRequest
	log := h.logger.WithField("method", "createGroup")

	if !h.bindAndValidate(c, log, &input) {
		return
	}

	creator := ""
	if len(input.Members) > 0 {
		creator = input.Members[0]
	}

	group, err := h.groupService.CreateGroup(c.Request.Context(), input.IssueID, input.Name, creator)
	if err != nil {
		respondServiceError(c, log, err, "issue not found")
		return
	}
	c.JSON(http.StatusCreated, ModelToGroupResponse(group))
}

// @Summary Join a group
// @Description Add a member to the group. Joining twice has no effect.
// @Tags Groups
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param request body MembershipRequest true "Member"
// @Success 200 {object} GroupResponse
// @Failure 400 {object} map[string]string "Invalid group ID or request body"
// @Failure 404 {object} map[string]string "Group not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /groups/{id}/join [post]
func (h *Handler) joinGroup(c *gin.Context) {
	h.changeMembership(c, "joinGroup", true)
}

// @Summary Leave a group
// @Description Remove a member from the group. Leaving a group one is not in has no effect.
// @Tags Groups
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param request body MembershipRequest true "Member"
// @Success 200 {object} GroupResponse
// @Failure 400 {object} map[string]string "Invalid group ID or request body"
// @Failure 404 {object} map[string]string "Group not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /groups/{id}/leave [post]
func (h *Handler) leaveGroup(c *gin.Context) {
	h.changeMembership(c, "leaveGroup", false)
}

func (h *Handler) changeMembership(c *gin.Context, method string, join bool) {
	id, ok := parseID(c, "group")
	if !ok {
		return
	}
	log := h.logger.WithFields(logrus.Fields{"method": method, "id": id})

	var input MembershipRequest
	if !h.bindAndValidate(c, log, &input) {
		return
	}

	change := h.groupService.LeaveGroup
	if join {
		change = h.groupService.JoinGroup
	}

	group, err := change(c.Request.Context(), id, input.UserID)
	if err != nil {
		respondServiceError(c, log, err, "group not found")
		return
	}
	c.JSON(http.StatusOK, ModelToGroupResponse(group))
}
