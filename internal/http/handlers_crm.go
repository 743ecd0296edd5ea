package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"inventory/internal/domain"
	"inventory/internal/repository"
	"inventory/internal/service"
)

// @Summary List clients
// @Tags clients
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope{data=[]domain.Client}
// @Failure 403 {object} Envelope
// @Router /api/clients [get]
func (s *Server) listClients(c *gin.Context) {
	list, err := s.clients.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, list)
}

// @Summary Get client by id
// @Tags clients
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Success 200 {object} Envelope{data=domain.Client}
// @Failure 403 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /api/clients/{id} [get]
func (s *Server) getClient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	cl, err := s.clients.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, cl)
}

// @Summary Create client
// @Tags clients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body service.ClientInput true "Client"
// @Success 201 {object} Envelope{data=domain.Client}
// @Failure 400 {object} Envelope
// @Failure 403 {object} Envelope
// @Failure 409 {object} Envelope
// @Router /api/clients [post]
func (s *Server) createClient(c *gin.Context) {
	var req service.ClientInput
	if !bindJSON(c, &req) {
		return
	}
	cl, err := s.clients.Create(c.Request.Context(), req, currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, cl)
}

// @Summary Update client
// @Tags clients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Param input body service.ClientInput true "Client"
// @Success 200 {object} Envelope{data=domain.Client}
// @Failure 400 {object} Envelope
// @Failure 403 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /api/clients/{id} [put]
func (s *Server) updateClient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.ClientInput
	if !bindJSON(c, &req) {
		return
	}
	cl, err := s.clients.Update(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, cl)
}

// @Summary Delete client
// @Tags clients
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Success 200 {object} Envelope
// @Failure 403 {object} Envelope
// @Failure 404 {object} Envelope
// @Failure 409 {object} Envelope
// @Router /api/clients/{id} [delete]
func (s *Server) deleteClient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.clients.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "client deleted successfully")
}

// @Summary List comments
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param relatedTo query string false "product, client, order or general"
// @Param relatedId query string false "Related entity id"
// @Success 200 {object} Envelope{data=[]domain.Comment}
// @Failure 400 {object} Envelope
// @Failure 403 {object} Envelope
// @Router /api/comments [get]
func (s *Server) listComments(c *gin.Context) {
	f := repository.CommentFilter{RelatedTo: domain.CommentTarget(c.Query("relatedTo"))}
	if v := c.Query("relatedId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			fail(c, &service.ValidationError{Fields: []service.FieldError{{Field: "relatedId", Message: "must be a valid id"}}})
			return
		}
		f.RelatedID = &id
	}
	list, err := s.comments.List(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, list)
}

// @Summary Get comment by id
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Comment ID"
// @Success 200 {object} Envelope{data=domain.Comment}
// @Failure 403 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /api/comments/{id} [get]
func (s *Server) getComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	cm, err := s.comments.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, cm)
}

// @Summary Create comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body service.CommentInput true "Comment"
// @Success 201 {object} Envelope{data=domain.Comment}
// @Failure 400 {object} Envelope
// @Failure 403 {object} Envelope
// @Router /api/comments [post]
func (s *Server) createComment(c *gin.Context) {
	var req service.CommentInput
	if !bindJSON(c, &req) {
		return
	}
	cm, err := s.comments.Create(c.Request.Context(), req, currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, cm)
}

// @Summary Edit comment text
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Comment ID"
// @Param input body service.CommentUpdate true "Content"
// @Success 200 {object} Envelope{data=domain.Comment}
// @Failure 400 {object} Envelope
// @Failure 403 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /api/comments/{id} [put]
func (s *Server) updateComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.CommentUpdate
	if !bindJSON(c, &req) {
		return
	}
	cm, err := s.comments.Update(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, cm)
}

// @Summary Delete comment
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Comment ID"
// @Success 200 {object} Envelope
// @Failure 403 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /api/comments/{id} [delete]
func (s *Server) deleteComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.comments.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "comment deleted successfully")
}
