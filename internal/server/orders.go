package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arbio/commerce-platform/internal/orders"
	"github.com/arbio/commerce-platform/internal/users"
)

// OrdersServer is the HTTP surface of the orders service.
type OrdersServer struct {
	logger   *zap.Logger
	userSvc  users.UserService
	orderSvc orders.OrderService
	started  time.Time
}

// NewOrdersServer creates the orders HTTP server.
func NewOrdersServer(logger *zap.Logger, userSvc users.UserService, orderSvc orders.OrderService) *OrdersServer {
	return &OrdersServer{
		logger:   logger,
		userSvc:  userSvc,
		orderSvc: orderSvc,
		started:  time.Now(),
	}
}

// Router builds the gin engine with all orders-service routes.
func (s *OrdersServer) Router() *gin.Engine {
	router := newRouter(s.logger, "orders")

	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	{
		usersGroup := api.Group("/users")
		{
			usersGroup.GET("", s.handleListUsers)
			usersGroup.POST("", s.handleCreateUser)
			usersGroup.GET("/stats", s.handleUserStats)
			usersGroup.GET("/:id", s.handleGetUser)
			usersGroup.GET("/:id/with-orders", s.handleGetUserWithOrders)
			usersGroup.PUT("/:id", s.handleUpdateUser)
			usersGroup.PATCH("/:id/deactivate", s.handleDeactivateUser)
			usersGroup.DELETE("/:id", s.handleDeleteUser)
		}

		ordersGroup := api.Group("/orders")
		{
			ordersGroup.GET("", s.handleListOrders)
			ordersGroup.POST("", s.handleCreateOrder)
			ordersGroup.GET("/stats", s.handleOrderStats)
			ordersGroup.GET("/:id", s.handleGetOrder)
			ordersGroup.PUT("/:id", s.handleUpdateOrder)
			ordersGroup.PATCH("/:id/status", s.handleUpdateOrderStatus)
			ordersGroup.PATCH("/:id/cancel", s.handleCancelOrder)
			ordersGroup.DELETE("/:id", s.handleDeleteOrder)
			ordersGroup.GET("/user/:userId", s.handleListUserOrders)
			ordersGroup.GET("/user/:userId/stats", s.handleUserOrderStats)
		}
	}

	return router
}

// handleHealth is consumed by the analytics gateway; the body is not
// enveloped.
func (s *OrdersServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "orders-service",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Seconds(),
	})
}

func (s *OrdersServer) handleListUsers(c *gin.Context) {
	filters := users.Filters{
		Limit:     intQuery(c, "limit", 50),
		Offset:    intQuery(c, "offset", 0),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if raw, ok := c.GetQuery("is_active"); ok {
		active := raw == "true"
		filters.IsActive = &active
	}

	list, err := s.userSvc.List(c.Request.Context(), filters)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respondList(c, list, len(list))
}

func (s *OrdersServer) handleCreateUser(c *gin.Context) {
	var req users.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	user, err := s.userSvc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respond(c, http.StatusCreated, user)
}

func (s *OrdersServer) handleUserStats(c *gin.Context) {
	stats, err := s.userSvc.Stats(c.Request.Context())
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, stats)
}

func (s *OrdersServer) handleGetUser(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	user, err := s.userSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, user)
}

func (s *OrdersServer) handleGetUserWithOrders(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	user, err := s.userSvc.GetWithOrders(c.Request.Context(), id)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, user)
}

func (s *OrdersServer) handleUpdateUser(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req users.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	user, err := s.userSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, user)
}

func (s *OrdersServer) handleDeactivateUser(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	user, err := s.userSvc.Deactivate(c.Request.Context(), id)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, user)
}

func (s *OrdersServer) handleDeleteUser(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := s.userSvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "user deleted"})
}

func (s *OrdersServer) handleListOrders(c *gin.Context) {
	filters := orders.Filters{
		Status:    c.Query("status"),
		Limit:     intQuery(c, "limit", 50),
		Offset:    intQuery(c, "offset", 0),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if raw := c.Query("user_id"); raw != "" {
		if userID, err := uuid.Parse(raw); err == nil {
			filters.UserID = &userID
		}
	}
	if raw := c.Query("start_date"); raw != "" {
		if start, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.StartDate = &start
		}
	}
	if raw := c.Query("end_date"); raw != "" {
		if end, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.EndDate = &end
		}
	}

	list, err := s.orderSvc.List(c.Request.Context(), filters)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respondList(c, list, len(list))
}

func (s *OrdersServer) handleCreateOrder(c *gin.Context) {
	var req orders.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	order, err := s.orderSvc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respond(c, http.StatusCreated, order)
}

func (s *OrdersServer) handleOrderStats(c *gin.Context) {
	stats, err := s.orderSvc.Stats(c.Request.Context())
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, stats)
}

func (s *OrdersServer) handleGetOrder(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	order, err := s.orderSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, order)
}

func (s *OrdersServer) handleUpdateOrder(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req orders.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	order, err := s.orderSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, order)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required,orderstatus"`
}

func (s *OrdersServer) handleUpdateOrderStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := s.orderSvc.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		respondError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "order status updated"})
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

func (s *OrdersServer) handleCancelOrder(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req cancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
	}

	order, err := s.orderSvc.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, order)
}

func (s *OrdersServer) handleDeleteOrder(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := s.orderSvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "order deleted"})
}

func (s *OrdersServer) handleListUserOrders(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	list, err := s.orderSvc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respondList(c, list, len(list))
}

func (s *OrdersServer) handleUserOrderStats(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	stats, err := s.orderSvc.UserStats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, stats)
}

// intQuery parses an integer query parameter with a fallback.
func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
