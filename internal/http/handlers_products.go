package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"inventory/internal/repository"
	"inventory/internal/service"
)

// @Summary List products
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param q query string false "Name contains"
// @Param min_price query number false "Min price"
// @Param max_price query number false "Max price"
// @Param active query bool false "Only active products"
// @Success 200 {object} Envelope{data=[]domain.Product}
// @Failure 400 {object} Envelope
// @Failure 403 {object} Envelope
// @Router /api/products [get]
func (s *Server) listProducts(c *gin.Context) {
	f := repository.ProductFilter{NameSubstring: c.Query("q")}
	var fields []service.FieldError
	if v := c.Query("min_price"); v != "" {
		if x, err := decimal.NewFromString(v); err == nil {
			f.MinPrice = &x
		} else {
			fields = append(fields, service.FieldError{Field: "min_price", Message: "must be a number"})
		}
	}
	if v := c.Query("max_price"); v != "" {
		if x, err := decimal.NewFromString(v); err == nil {
			f.MaxPrice = &x
		} else {
			fields = append(fields, service.FieldError{Field: "max_price", Message: "must be a number"})
		}
	}
	if v := c.Query("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			fields = append(fields, service.FieldError{Field: "active", Message: "must be a boolean"})
		}
		f.ActiveOnly = active
	}
	if len(fields) > 0 {
		fail(c, &service.ValidationError{Fields: fields})
		return
	}
	list, err := s.products.List(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, list)
}

// @Summary Get product by id
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} Envelope{data=domain.Product}
// @Failure 403 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /api/products/{id} [get]
func (s *Server) getProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	p, err := s.products.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, p)
}

// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body service.ProductInput true "Product"
// @Success 201 {object} Envelope{data=domain.Product}
// @Failure 400 {object} Envelope
// @Failure 403 {object} Envelope
// @Failure 409 {object} Envelope
// @Router /api/products [post]
func (s *Server) createProduct(c *gin.Context) {
	var req service.ProductInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := s.products.Create(c.Request.Context(), req, currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, p)
}

// @Summary Update product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param input body service.ProductInput true "Product"
// @Success 200 {object} Envelope{data=domain.Product}
// @Failure 400 {object} Envelope
// @Failure 403 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /api/products/{id} [put]
func (s *Server) updateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.ProductInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := s.products.Update(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, p)
}

// @Summary Delete product
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} Envelope
// @Failure 403 {object} Envelope
// @Failure 404 {object} Envelope
// @Failure 409 {object} Envelope
// @Router /api/products/{id} [delete]
func (s *Server) deleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.products.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "product deleted successfully")
}
