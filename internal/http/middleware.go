package httpapi

import (
	"fmt"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"inventory/internal/auth"
	"inventory/internal/domain"
	"inventory/internal/logger"
	"inventory/internal/service"
)

const (
	requestIDHeader = "X-Request-ID"
	userKey         = "user"
)

// allowOrigins answers CORS preflights; "*" allows any origin.
func allowOrigins(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// recoverPanic keeps the response envelope when a handler panics.
func recoverPanic() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		fail(c, fmt.Errorf("panic: %v", rec))
	})
}

// requestLogger assigns a request id, puts a scoped logger into the request
// context and logs the outcome of every request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		l := logger.Get().With(zap.String("request_id", requestID))
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), l))

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if c.Writer.Status() >= 500 {
			l.Error("HTTP request failed", fields...)
			return
		}
		l.Info("HTTP request completed", fields...)
	}
}

func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		s.metrics.ObserveHTTP(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

// authenticate resolves the bearer token to an active user.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			fail(c, fmt.Errorf("%w: authorization header required", service.ErrUnauthenticated))
			return
		}
		user, err := s.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			fail(c, err)
			return
		}
		ctx := logger.WithContext(c.Request.Context(),
			logger.FromContext(c.Request.Context()).With(zap.String("user_id", user.ID.String())))
		c.Request = c.Request.WithContext(ctx)
		c.Set(userKey, user)
		c.Next()
	}
}

// requirePermission runs before the handler so a denied caller never learns
// whether the target exists.
func (s *Server) requirePermission(resource domain.Resource, action domain.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authz.Require(c.Request.Context(), currentUser(c), resource, action); err != nil {
			fail(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authz.RequireAdmin(currentUser(c)); err != nil {
			fail(c, err)
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}
