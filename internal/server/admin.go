package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/Nolger/chatbot/internal/models"
	"github.com/Nolger/chatbot/internal/store"
	"github.com/Nolger/chatbot/internal/whatsapp"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// View structs returned by the admin API.

type chatView struct {
	ID              uint      `json:"id"`
	ExternalUserID  string    `json:"external_user_id"`
	Status          string    `json:"status"`
	ControlMode     string    `json:"control_mode"`
	AssignedAgentID *uint     `json:"assigned_agent_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type messageView struct {
	ID          uint      `json:"id"`
	ChatID      uint      `json:"chat_id"`
	SenderType  string    `json:"sender_type"`
	MessageKind string    `json:"message_kind"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
}

type orderView struct {
	ID              uint      `json:"id"`
	Reference       string    `json:"reference"`
	ChatID          uint      `json:"chat_id"`
	ExternalUserID  string    `json:"external_user_id"`
	ProductName     string    `json:"product_name"`
	CustomerName    string    `json:"customer_name"`
	DeliveryAddress string    `json:"delivery_address"`
	PaymentMethod   string    `json:"payment_method"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// handleListChats lists chats, optionally filtered by status and control mode.
func (s *Server) handleListChats(c *gin.Context) {
	chats, err := store.ListChats(s.db, store.ChatFilters{
		Status:      c.Query("status"),
		ControlMode: c.Query("control_mode"),
	})
	if err != nil {
		log.Printf("admin: list chats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store unavailable"})
		return
	}

	views := make([]chatView, len(chats))
	for i, ch := range chats {
		views[i] = chatView{
			ID:              ch.ID,
			ExternalUserID:  ch.ExternalUserID,
			Status:          ch.Status,
			ControlMode:     ch.ControlMode,
			AssignedAgentID: ch.AssignedAgentID,
			CreatedAt:       ch.CreatedAt,
			UpdatedAt:       ch.UpdatedAt,
		}
	}
	c.JSON(http.StatusOK, gin.H{"chats": views})
}

// handleChatMessages returns a chat's full message log in send order.
func (s *Server) handleChatMessages(c *gin.Context) {
	chat, ok := s.loadChat(c)
	if !ok {
		return
	}

	msgs, err := store.MessagesForChat(s.db, chat.ID)
	if err != nil {
		log.Printf("admin: messages for chat %d: %v", chat.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store unavailable"})
		return
	}

	views := make([]messageView, len(msgs))
	for i, m := range msgs {
		views[i] = messageView{
			ID:          m.ID,
			ChatID:      m.ChatID,
			SenderType:  m.SenderType,
			MessageKind: m.MessageKind,
			Content:     m.Content,
			Timestamp:   m.Timestamp,
		}
	}
	c.JSON(http.StatusOK, gin.H{"messages": views})
}

// handleAgentMessage delivers an agent-authored text to the user and appends
// it to the chat log. The log entry is written even when delivery fails, and
// the caller is told about the failure.
func (s *Server) handleAgentMessage(c *gin.Context) {
	chat, ok := s.loadChat(c)
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	deliveryErr := s.sender.SendText(c.Request.Context(), chat.ExternalUserID, req.Text)
	if deliveryErr != nil {
		log.Printf("admin: deliver agent message to %s: %v", chat.ExternalUserID, deliveryErr)
	}

	msg, err := store.SaveMessage(s.db, chat.ID, models.SenderAgent, whatsapp.KindText, req.Text)
	if err != nil {
		log.Printf("admin: record agent message for chat %d: %v", chat.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store unavailable"})
		return
	}

	if deliveryErr != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "delivery failed", "message_id": msg.ID})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message_id": msg.ID})
}

// handleSetControl hands a chat to an agent or back to the bot.
func (s *Server) handleSetControl(c *gin.Context) {
	chat, ok := s.loadChat(c)
	if !ok {
		return
	}

	var req struct {
		Mode    string `json:"mode"`
		AgentID *uint  `json:"agent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if req.Mode != models.ControlBot && req.Mode != models.ControlAgent {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be bot or agent"})
		return
	}

	if err := store.SetControlMode(s.db, chat.ExternalUserID, req.Mode, req.AgentID); err != nil {
		log.Printf("admin: set control for chat %d: %v", chat.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"control_mode": req.Mode})
}

// handleListOrders lists orders, optionally filtered by status.
func (s *Server) handleListOrders(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !models.ValidOrderStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	orders, err := store.ListOrders(s.db, store.OrderFilters{Status: status})
	if err != nil {
		log.Printf("admin: list orders: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store unavailable"})
		return
	}

	views := make([]orderView, len(orders))
	for i, o := range orders {
		views[i] = orderView{
			ID:              o.ID,
			Reference:       o.Reference,
			ChatID:          o.ChatID,
			ExternalUserID:  o.ExternalUserID,
			ProductName:     o.ProductName,
			CustomerName:    o.CustomerName,
			DeliveryAddress: o.DeliveryAddress,
			PaymentMethod:   o.PaymentMethod,
			Status:          o.Status,
			CreatedAt:       o.CreatedAt,
			UpdatedAt:       o.UpdatedAt,
		}
	}
	c.JSON(http.StatusOK, gin.H{"orders": views})
}

// handleOrderStatus moves an order to a new status.
func (s *Server) handleOrderStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	if !models.ValidOrderStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	var order models.Order
	if err := s.db.First(&order, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		log.Printf("admin: load order %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store unavailable"})
		return
	}

	if err := store.UpdateOrderStatus(s.db, order.ID, req.Status); err != nil {
		log.Printf("admin: update order %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

// loadChat resolves the :id route parameter to a chat, writing the error
// response itself when the id is malformed or unknown.
func (s *Server) loadChat(c *gin.Context) (*models.Chat, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return nil, false
	}

	var chat models.Chat
	if err := s.db.First(&chat, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return nil, false
		}
		log.Printf("admin: load chat %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store unavailable"})
		return nil, false
	}
	return &chat, true
}
