package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"inventory/internal/domain"
	"inventory/internal/metrics"
	"inventory/internal/service"
)

// Services зависимости HTTP слоя
type Services struct {
	Auth        *service.AuthService
	Authz       *service.Authorizer
	Users       *service.UserService
	Permissions *service.PermissionService
	Products    *service.ProductService
	Clients     *service.ClientService
	Orders      *service.OrderService
	Comments    *service.CommentService
}

type Server struct {
	engine  *gin.Engine
	metrics *metrics.Metrics

	auth        *service.AuthService
	authz       *service.Authorizer
	users       *service.UserService
	permissions *service.PermissionService
	products    *service.ProductService
	clients     *service.ClientService
	orders      *service.OrderService
	comments    *service.CommentService
}

// NewServer builds the router; corsOrigins lists browser origins allowed to call the API.
func NewServer(svc Services, m *metrics.Metrics, corsOrigins []string) *Server {
	r := gin.New()
	s := &Server{
		engine:      r,
		metrics:     m,
		auth:        svc.Auth,
		authz:       svc.Authz,
		users:       svc.Users,
		permissions: svc.Permissions,
		products:    svc.Products,
		clients:     svc.Clients,
		orders:      svc.Orders,
		comments:    svc.Comments,
	}
	r.Use(s.requestLogger(), recoverPanic(), allowOrigins(corsOrigins), s.observe())
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.health)
	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, Envelope{Success: false, Message: fmt.Sprintf("route %s not found", c.Request.URL.Path)})
	})

	api := s.engine.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", s.register)
	authGroup.POST("/login", s.login)
	authGroup.GET("/me", s.authenticate(), s.me)

	protected := api.Group("", s.authenticate())

	products := protected.Group("/products")
	products.GET("", s.requirePermission(domain.ResourceProducts, domain.ActionView), s.listProducts)
	products.GET("/:id", s.requirePermission(domain.ResourceProducts, domain.ActionView), s.getProduct)
	products.POST("", s.requirePermission(domain.ResourceProducts, domain.ActionCreate), s.createProduct)
	products.PUT("/:id", s.requirePermission(domain.ResourceProducts, domain.ActionUpdate), s.updateProduct)
	products.DELETE("/:id", s.requirePermission(domain.ResourceProducts, domain.ActionDelete), s.deleteProduct)

	clients := protected.Group("/clients")
	clients.GET("", s.requirePermission(domain.ResourceClients, domain.ActionView), s.listClients)
	clients.GET("/:id", s.requirePermission(domain.ResourceClients, domain.ActionView), s.getClient)
	clients.POST("", s.requirePermission(domain.ResourceClients, domain.ActionCreate), s.createClient)
	clients.PUT("/:id", s.requirePermission(domain.ResourceClients, domain.ActionUpdate), s.updateClient)
	clients.DELETE("/:id", s.requirePermission(domain.ResourceClients, domain.ActionDelete), s.deleteClient)

	orders := protected.Group("/orders")
	orders.GET("", s.requirePermission(domain.ResourceOrders, domain.ActionView), s.listOrders)
	orders.GET("/:id", s.requirePermission(domain.ResourceOrders, domain.ActionView), s.getOrder)
	orders.POST("", s.requirePermission(domain.ResourceOrders, domain.ActionCreate), s.createOrder)
	orders.PUT("/:id", s.requirePermission(domain.ResourceOrders, domain.ActionUpdate), s.updateOrder)
	orders.DELETE("/:id", s.requirePermission(domain.ResourceOrders, domain.ActionDelete), s.deleteOrder)

	comments := protected.Group("/comments")
	comments.GET("", s.requirePermission(domain.ResourceComments, domain.ActionView), s.listComments)
	comments.GET("/:id", s.requirePermission(domain.ResourceComments, domain.ActionView), s.getComment)
	comments.POST("", s.requirePermission(domain.ResourceComments, domain.ActionCreate), s.createComment)
	comments.PUT("/:id", s.requirePermission(domain.ResourceComments, domain.ActionUpdate), s.updateComment)
	comments.DELETE("/:id", s.requirePermission(domain.ResourceComments, domain.ActionDelete), s.deleteComment)

	admin := protected.Group("", s.requireAdmin())

	users := admin.Group("/users")
	users.GET("", s.listUsers)
	users.GET("/:id", s.getUser)
	users.POST("", s.createUser)
	users.PUT("/:id", s.updateUser)
	users.DELETE("/:id", s.deleteUser)

	perms := admin.Group("/permissions")
	perms.GET("/:userId", s.getPermissions)
	perms.PUT("/:userId", s.updatePermissions)
}

// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} Envelope
// @Router /health [get]
func (s *Server) health(c *gin.Context) {
	respondMessage(c, http.StatusOK, "ok")
}
