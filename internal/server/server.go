// Package server holds the HTTP surfaces of both services. Each binary gets
// its own Server type; responses share the {success, data} / {success, error}
// envelope and the same error-to-status translation.
package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arbio/commerce-platform/internal/orders/lifecycle"
	"github.com/arbio/commerce-platform/pkg/metrics"
	"github.com/arbio/commerce-platform/pkg/models"
)

// RegisterValidators installs the custom binding rules. Call once at startup.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	return v.RegisterValidation("orderstatus", func(fl validator.FieldLevel) bool {
		return models.ValidOrderStatus(fl.Field().String())
	})
}

// newRouter builds a gin engine with the shared middleware chain.
func newRouter(logger *zap.Logger, service string) *gin.Engine {
	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))
	router.Use(cors.Default())
	router.Use(metricsMiddleware(service))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

// metricsMiddleware records request counts and latency per route pattern.
func metricsMiddleware(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(service, c.Request.Method, path,
			strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(service, path).
			Observe(time.Since(start).Seconds())
	}
}

// respond writes a success envelope.
func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// respondList writes a success envelope with an element count.
func respondList(c *gin.Context, data any, count int) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data, "count": count})
}

// respondError translates a domain error into a status code and writes the
// error envelope. Unrecognized errors become opaque 500s.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status, message := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"success": false, "error": message})
}

func errorStatus(err error) (int, string) {
	var rejection *lifecycle.RejectionError
	switch {
	case errors.As(err, &rejection):
		return http.StatusBadRequest, rejection.Reason
	case errors.Is(err, models.ErrInvalidAmount):
		return http.StatusBadRequest, models.ErrInvalidAmount.Error()
	case errors.Is(err, models.ErrInvalidStatus):
		return http.StatusBadRequest, models.ErrInvalidStatus.Error()
	case errors.Is(err, models.ErrUserInactive):
		return http.StatusBadRequest, models.ErrUserInactive.Error()
	case errors.Is(err, models.ErrEmailExists):
		return http.StatusConflict, models.ErrEmailExists.Error()
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, models.ErrPeerUnavailable):
		return http.StatusServiceUnavailable, models.ErrPeerUnavailable.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// uuidParam parses a path parameter as a UUID, answering 400 itself when the
// value is malformed.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid " + name + " parameter",
		})
		return uuid.Nil, false
	}
	return id, true
}
