package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arbio/commerce-platform/pkg/models"
)

func newPeerStub(t *testing.T, register func(*gin.Engine)) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	register(router)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL}, zap.NewNop())
}

func TestHealth(t *testing.T) {
	client := newPeerStub(t, func(r *gin.Engine) {
		r.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "orders-service"})
		})
	})

	health, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "orders-service", health.Service)
}

func TestUserFound(t *testing.T) {
	userID := uuid.New()
	client := newPeerStub(t, func(r *gin.Engine) {
		r.GET("/api/users/:id", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
				"id":        userID.String(),
				"email":     "peer@example.com",
				"is_active": true,
			}})
		})
	})

	user, err := client.User(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "peer@example.com", user.Email)
}

func TestUserNotFoundIsNil(t *testing.T) {
	client := newPeerStub(t, func(r *gin.Engine) {
		r.GET("/api/users/:id", func(c *gin.Context) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "user not found"})
		})
	})

	user, err := client.User(context.Background(), uuid.New())
	require.NoError(t, err, "a missing peer user is not an error")
	assert.Nil(t, user)
}

func TestServerErrorIsPeerUnavailable(t *testing.T) {
	client := newPeerStub(t, func(r *gin.Engine) {
		r.GET("/api/users", func(c *gin.Context) {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		})
	})

	_, err := client.Users(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrPeerUnavailable)
}

func TestNetworkFailureIsPeerUnavailable(t *testing.T) {
	// Point at a closed server.
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	client := NewClient(Config{BaseURL: server.URL}, zap.NewNop())

	_, err := client.OrderStats(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrPeerUnavailable)
}

func TestUserOrdersAndStats(t *testing.T) {
	userID := uuid.New()
	client := newPeerStub(t, func(r *gin.Engine) {
		r.GET("/api/orders/user/:id", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true, "data": []gin.H{
				{"id": uuid.NewString(), "total_amount": "49.99", "status": "delivered", "user_email": "peer@example.com"},
			}})
		})
		r.GET("/api/users/stats", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
				"totalUsers": 12, "activeUsers": 9, "inactiveUsers": 3,
			}})
		})
	})

	orders, err := client.UserOrders(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "49.99", orders[0].TotalAmount.String())
	assert.Equal(t, models.OrderStatusDelivered, orders[0].Status)

	stats, err := client.UserStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), stats.TotalUsers)
	assert.Equal(t, int64(9), stats.ActiveUsers)
}
