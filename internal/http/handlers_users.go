package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"inventory/internal/domain"
	"inventory/internal/service"
)

// @Summary List users with permissions
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope{data=[]domain.User}
// @Failure 403 {object} Envelope
// @Router /api/users [get]
func (s *Server) listUsers(c *gin.Context) {
	list, err := s.users.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, list)
}

// @Summary Get user by id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} Envelope{data=domain.User}
// @Failure 403 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /api/users/{id} [get]
func (s *Server) getUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	u, err := s.users.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, u)
}

// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body service.CreateUserInput true "User"
// @Success 201 {object} Envelope{data=domain.User}
// @Failure 400 {object} Envelope
// @Failure 403 {object} Envelope
// @Failure 409 {object} Envelope
// @Router /api/users [post]
func (s *Server) createUser(c *gin.Context) {
	var req service.CreateUserInput
	if !bindJSON(c, &req) {
		return
	}
	u, err := s.users.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, u)
}

// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param input body service.UpdateUserInput true "User"
// @Success 200 {object} Envelope{data=domain.User}
// @Failure 400 {object} Envelope
// @Failure 403 {object} Envelope
// @Failure 404 {object} Envelope
// @Failure 409 {object} Envelope
// @Router /api/users/{id} [put]
func (s *Server) updateUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateUserInput
	if !bindJSON(c, &req) {
		return
	}
	u, err := s.users.Update(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, u)
}

// @Summary Delete user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} Envelope
// @Failure 400 {object} Envelope
// @Failure 403 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /api/users/{id} [delete]
func (s *Server) deleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.users.Delete(c.Request.Context(), currentUser(c).ID, id); err != nil {
		fail(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "user deleted successfully")
}

// @Summary Get user permissions
// @Tags permissions
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 200 {object} Envelope{data=[]domain.Permission}
// @Failure 403 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /api/permissions/{userId} [get]
func (s *Server) getPermissions(c *gin.Context) {
	id, ok := parseID(c, "userId")
	if !ok {
		return
	}
	list, err := s.permissions.GetPermissions(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, list)
}

// @Summary Replace user permissions
// @Description Body is either an array of entries or an object keyed by resource. Omitted flags become false.
// @Tags permissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Param input body []service.PermissionInput true "Permissions"
// @Success 200 {object} Envelope{data=[]domain.Permission}
// @Failure 400 {object} Envelope
// @Failure 403 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /api/permissions/{userId} [put]
func (s *Server) updatePermissions(c *gin.Context) {
	id, ok := parseID(c, "userId")
	if !ok {
		return
	}
	raw, err := c.GetRawData()
	if err != nil {
		fail(c, bodyError(err))
		return
	}
	inputs, err := decodePermissions(raw)
	if err != nil {
		fail(c, err)
		return
	}
	list, err := s.permissions.UpdatePermissions(c.Request.Context(), id, inputs)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Envelope{Success: true, Message: "permissions updated successfully", Data: list})
}

// decodePermissions accepts [{resource, canView, ...}] or {"products": {canView, ...}}.
func decodePermissions(raw []byte) ([]service.PermissionInput, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, bodyError(io.EOF)
	}
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		var list []service.PermissionInput
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, bodyError(err)
		}
		return list, nil
	}
	var byResource map[string]service.PermissionInput
	if err := json.Unmarshal(raw, &byResource); err != nil {
		return nil, bodyError(err)
	}
	keys := lo.Keys(byResource)
	slices.Sort(keys)
	return lo.Map(keys, func(k string, _ int) service.PermissionInput {
		in := byResource[k]
		in.Resource = domain.Resource(k)
		return in
	}), nil
}
