package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inventory/internal/service"
)

// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param input body service.RegisterInput true "Registration"
// @Success 201 {object} Envelope{data=service.Session}
// @Failure 400 {object} Envelope
// @Failure 409 {object} Envelope
// @Router /api/auth/register [post]
func (s *Server) register(c *gin.Context) {
	var req service.RegisterInput
	if !bindJSON(c, &req) {
		return
	}
	sess, err := s.auth.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, sess)
}

// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param input body service.LoginInput true "Credentials"
// @Success 200 {object} Envelope{data=service.Session}
// @Failure 400 {object} Envelope
// @Failure 401 {object} Envelope
// @Router /api/auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req service.LoginInput
	if !bindJSON(c, &req) {
		return
	}
	sess, err := s.auth.Login(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, sess)
}

// @Summary Current user with permissions
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope{data=domain.User}
// @Failure 401 {object} Envelope
// @Router /api/auth/me [get]
func (s *Server) me(c *gin.Context) {
	u, err := s.auth.Me(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, u)
}
