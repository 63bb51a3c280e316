// Package store is the durable conversation store: chats, their append-only
// message logs, and orders. It is the source of truth for who controls a
// conversation (bot or human agent).
package store

import (
	"fmt"
	"log"
	"time"

	"github.com/Nolger/chatbot/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetOrCreateChat resolves the chat for a WhatsApp identity, creating it on
// first contact. The upsert is conflict-tolerant so concurrent first contact
// from the same identity cannot produce duplicate rows. Every call touches
// updated_at. A store failure here means the turn cannot be processed at all;
// callers must abort without replying.
func GetOrCreateChat(db *gorm.DB, externalUserID string) (*models.Chat, error) {
	if externalUserID == "" {
		return nil, fmt.Errorf("store: external user id is required")
	}

	chat := models.Chat{
		ExternalUserID: externalUserID,
		Status:         models.ChatActive,
		ControlMode:    models.ControlBot,
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"updated_at": time.Now()}),
	}).Create(&chat).Error
	if err != nil {
		return nil, fmt.Errorf("store: get or create chat %s: %w", externalUserID, err)
	}

	// Re-read: on conflict the surviving row keeps its original id and mode.
	var out models.Chat
	if err := db.Where("external_user_id = ?", externalUserID).First(&out).Error; err != nil {
		return nil, fmt.Errorf("store: load chat %s: %w", externalUserID, err)
	}
	return &out, nil
}

// SaveMessage appends one message to a chat's log. Prior rows are never
// updated or removed.
func SaveMessage(db *gorm.DB, chatID uint, senderType, messageKind, content string) (*models.Message, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("store: chat id is required")
	}
	if senderType == "" {
		return nil, fmt.Errorf("store: sender type is required")
	}
	if messageKind == "" {
		return nil, fmt.Errorf("store: message kind is required")
	}

	msg := models.Message{
		ChatID:      chatID,
		SenderType:  senderType,
		MessageKind: messageKind,
		Content:     content,
	}
	if err := db.Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("store: save message for chat %d: %w", chatID, err)
	}
	return &msg, nil
}

// OrderDetails carries the fields collected by the order flow.
type OrderDetails struct {
	ProductName     string
	CustomerName    string
	DeliveryAddress string
	PaymentMethod   string
}

// SaveOrder inserts a completed order. There is no dedup check: the dialogue
// engine guarantees at most one call per completed flow by deleting the
// session state right after a successful insert.
func SaveOrder(db *gorm.DB, chatID uint, externalUserID string, details OrderDetails) (*models.Order, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("store: chat id is required")
	}
	if externalUserID == "" {
		return nil, fmt.Errorf("store: external user id is required")
	}
	if details.ProductName == "" {
		return nil, fmt.Errorf("store: product name is required")
	}

	order := models.Order{
		Reference:       uuid.NewString(),
		ChatID:          chatID,
		ExternalUserID:  externalUserID,
		ProductName:     details.ProductName,
		CustomerName:    details.CustomerName,
		DeliveryAddress: details.DeliveryAddress,
		PaymentMethod:   details.PaymentMethod,
		Status:          models.OrderPending,
	}
	if err := db.Create(&order).Error; err != nil {
		return nil, fmt.Errorf("store: save order for chat %d: %w", chatID, err)
	}
	return &order, nil
}

// ControlMode returns the control mode for a chat. A missing chat or an
// unreachable store yields "bot": a transient read failure must never leave
// a conversation silently stuck in agent mode.
func ControlMode(db *gorm.DB, chatID uint) string {
	var chat models.Chat
	if err := db.Select("control_mode").Where("id = ?", chatID).First(&chat).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("store: control mode for chat %d: %v", chatID, err)
		}
		return models.ControlBot
	}
	if chat.ControlMode == "" {
		return models.ControlBot
	}
	return chat.ControlMode
}

// SetControlMode hands a conversation to the bot or to a human agent. It keys
// on the WhatsApp identity because some callers (the dialogue engine) only
// know the external identity.
func SetControlMode(db *gorm.DB, externalUserID, mode string, agentID *uint) error {
	if externalUserID == "" {
		return fmt.Errorf("store: external user id is required")
	}
	if mode != models.ControlBot && mode != models.ControlAgent {
		return fmt.Errorf("store: invalid control mode %q", mode)
	}

	result := db.Model(&models.Chat{}).
		Where("external_user_id = ?", externalUserID).
		Updates(map[string]interface{}{
			"control_mode":      mode,
			"assigned_agent_id": agentID,
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("store: set control mode for %s: %w", externalUserID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("store: chat not found for %s", externalUserID)
	}
	return nil
}

// ChatFilters narrows ListChats results. Empty fields match everything.
type ChatFilters struct {
	Status      string
	ControlMode string
}

// ListChats returns chats most recently touched first.
func ListChats(db *gorm.DB, filters ChatFilters) ([]models.Chat, error) {
	query := db.Order("updated_at DESC")
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.ControlMode != "" {
		query = query.Where("control_mode = ?", filters.ControlMode)
	}

	var chats []models.Chat
	if err := query.Find(&chats).Error; err != nil {
		return nil, fmt.Errorf("store: list chats: %w", err)
	}
	return chats, nil
}

// MessagesForChat returns a chat's full log in send order.
func MessagesForChat(db *gorm.DB, chatID uint) ([]models.Message, error) {
	var msgs []models.Message
	if err := db.Where("chat_id = ?", chatID).
		Order("timestamp ASC, id ASC").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("store: messages for chat %d: %w", chatID, err)
	}
	return msgs, nil
}

// OrderFilters narrows ListOrders results. An empty status matches everything.
type OrderFilters struct {
	Status string
}

// ListOrders returns orders newest first.
func ListOrders(db *gorm.DB, filters OrderFilters) ([]models.Order, error) {
	query := db.Order("created_at DESC, id DESC")
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("store: list orders: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus moves an order to a new status.
func UpdateOrderStatus(db *gorm.DB, orderID uint, status string) error {
	if !models.ValidOrderStatus(status) {
		return fmt.Errorf("store: invalid order status %q", status)
	}

	result := db.Model(&models.Order{}).Where("id = ?", orderID).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("store: update order %d: %w", orderID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("store: order not found: %d", orderID)
	}
	return nil
}
