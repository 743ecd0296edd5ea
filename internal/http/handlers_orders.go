package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inventory/internal/service"
)

// @Summary List orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope{data=[]domain.Order}
// @Failure 403 {object} Envelope
// @Router /api/orders [get]
func (s *Server) listOrders(c *gin.Context) {
	list, err := s.orders.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, list)
}

// @Summary Get order with client, items and products
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} Envelope{data=domain.Order}
// @Failure 403 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /api/orders/{id} [get]
func (s *Server) getOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	o, err := s.orders.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, o)
}

// @Summary Create order
// @Description Total is computed from the items. Payments must match it within 0.01.
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body service.CreateOrderInput true "Order"
// @Success 201 {object} Envelope{data=domain.Order}
// @Failure 400 {object} Envelope
// @Failure 403 {object} Envelope
// @Failure 404 {object} Envelope
// @Failure 409 {object} Envelope
// @Router /api/orders [post]
func (s *Server) createOrder(c *gin.Context) {
	var req service.CreateOrderInput
	if !bindJSON(c, &req) {
		return
	}
	o, err := s.orders.CreateOrder(c.Request.Context(), req, currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, o)
}

// @Summary Update order status or notes
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param input body service.UpdateOrderInput true "Changes"
// @Success 200 {object} Envelope{data=domain.Order}
// @Failure 400 {object} Envelope
// @Failure 403 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /api/orders/{id} [put]
func (s *Server) updateOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateOrderInput
	if !bindJSON(c, &req) {
		return
	}
	o, err := s.orders.Update(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, o)
}

// @Summary Delete order
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} Envelope
// @Failure 403 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /api/orders/{id} [delete]
func (s *Server) deleteOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.orders.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "order deleted successfully")
}
