package main

import (
	"net/http"
	"strings"
	"time"

	"oracle/models"
	"oracle/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const currentUserKey = "currentUser"

// jwtAuthMiddleware resolves the bearer token to a user and stores it on the context.
func (s *server) jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) < 8 || !strings.EqualFold(authHeader[:7], "Bearer ") {
			abortDetail(c, http.StatusUnauthorized, "Not authenticated")
			return
		}
		email, err := s.auth.ParseToken(strings.TrimSpace(authHeader[7:]))
		if err != nil {
			s.respondError(c, err)
			return
		}
		user, err := s.auth.UserByEmail(email)
		if err != nil {
			s.respondError(c, ErrInvalidToken)
			return
		}
		c.Set(currentUserKey, &user)
		c.Next()
	}
}

// currentUser returns the user set by jwtAuthMiddleware.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// requestLogger tags each request with an id and logs it once it completes.
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestID,
		}
		if u := currentUser(c); u != nil {
			fields = append(fields, "user_id", u.ID)
		}
		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
