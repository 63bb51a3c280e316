package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Nolger/chatbot/internal/models"
	"github.com/Nolger/chatbot/internal/store"
	"gorm.io/gorm"
)

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	out := map[string]json.RawMessage{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func seedChat(t *testing.T, db *gorm.DB, userID string) *models.Chat {
	t.Helper()
	chat, err := store.GetOrCreateChat(db, userID)
	if err != nil {
		t.Fatalf("seed chat for %s: %v", userID, err)
	}
	return chat
}

func TestListChats_Filters(t *testing.T) {
	s, db, _ := newTestServer(t)

	seedChat(t, db, "573001110001")
	seedChat(t, db, "573001110002")
	if err := store.SetControlMode(db, "573001110002", models.ControlAgent, nil); err != nil {
		t.Fatalf("set control: %v", err)
	}

	w := doJSON(t, s, http.MethodGet, "/api/chats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var all []chatView
	if err := json.Unmarshal(decodeBody(t, w)["chats"], &all); err != nil {
		t.Fatalf("decode chats: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len(chats) = %d, want 2", len(all))
	}

	w = doJSON(t, s, http.MethodGet, "/api/chats?control_mode=agent", "")
	var agentHeld []chatView
	if err := json.Unmarshal(decodeBody(t, w)["chats"], &agentHeld); err != nil {
		t.Fatalf("decode chats: %v", err)
	}
	if len(agentHeld) != 1 || agentHeld[0].ExternalUserID != "573001110002" {
		t.Errorf("filtered chats = %+v, want only the agent-held one", agentHeld)
	}
}

func TestChatMessages(t *testing.T) {
	s, db, _ := newTestServer(t)

	chat := seedChat(t, db, testUser)
	for _, content := range []string{"hola", "quiero el kit"} {
		if _, err := store.SaveMessage(db, chat.ID, models.SenderUser, "text", content); err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}

	w := doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/chats/%d/messages", chat.ID), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var msgs []messageView
	if err := json.Unmarshal(decodeBody(t, w)["messages"], &msgs); err != nil {
		t.Fatalf("decode messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len(messages) = %d, want 2", len(msgs))
	}
	if msgs[0].Content != "hola" || msgs[1].Content != "quiero el kit" {
		t.Errorf("messages out of order: %+v", msgs)
	}
}

func TestChatMessages_UnknownChat(t *testing.T) {
	s, _, _ := newTestServer(t)

	if w := doJSON(t, s, http.MethodGet, "/api/chats/999/messages", ""); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if w := doJSON(t, s, http.MethodGet, "/api/chats/abc/messages", ""); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for non-numeric id", w.Code)
	}
}

func TestAgentMessage(t *testing.T) {
	s, db, sender := newTestServer(t)
	chat := seedChat(t, db, testUser)

	w := doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/chats/%d/messages", chat.ID),
		`{"text": "Hola, soy Laura del equipo de ventas"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	if len(sender.texts) != 1 || sender.texts[0] != "Hola, soy Laura del equipo de ventas" {
		t.Errorf("sent texts = %v, want the agent text", sender.texts)
	}

	msgs, err := store.MessagesForChat(db, chat.ID)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].SenderType != models.SenderAgent {
		t.Fatalf("msgs = %+v, want one agent message", msgs)
	}
}

func TestAgentMessage_DeliveryFailureStillRecorded(t *testing.T) {
	s, db, sender := newTestServer(t)
	chat := seedChat(t, db, testUser)
	sender.err = fmt.Errorf("api down")

	w := doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/chats/%d/messages", chat.ID),
		`{"text": "¿sigues ahí?"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}

	msgs, err := store.MessagesForChat(db, chat.ID)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 1 {
		t.Errorf("len(msgs) = %d, want 1: attempt must be logged", len(msgs))
	}
}

func TestAgentMessage_EmptyText(t *testing.T) {
	s, db, sender := newTestServer(t)
	chat := seedChat(t, db, testUser)

	w := doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/chats/%d/messages", chat.ID), `{"text": ""}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if sender.sends() != 0 {
		t.Errorf("sends = %d, want 0", sender.sends())
	}
}

func TestSetControl(t *testing.T) {
	s, db, _ := newTestServer(t)
	chat := seedChat(t, db, testUser)

	agentID := uint(7)
	w := doJSON(t, s, http.MethodPut, fmt.Sprintf("/api/chats/%d/control", chat.ID),
		`{"mode": "agent", "agent_id": 7}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var got models.Chat
	if err := db.First(&got, chat.ID).Error; err != nil {
		t.Fatalf("reload chat: %v", err)
	}
	if got.ControlMode != models.ControlAgent {
		t.Errorf("control_mode = %q, want agent", got.ControlMode)
	}
	if got.AssignedAgentID == nil || *got.AssignedAgentID != agentID {
		t.Errorf("assigned_agent_id = %v, want 7", got.AssignedAgentID)
	}

	// Hand back to the bot clears the assignment.
	w = doJSON(t, s, http.MethodPut, fmt.Sprintf("/api/chats/%d/control", chat.ID), `{"mode": "bot"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if err := db.First(&got, chat.ID).Error; err != nil {
		t.Fatalf("reload chat: %v", err)
	}
	if got.ControlMode != models.ControlBot || got.AssignedAgentID != nil {
		t.Errorf("chat = %q/%v, want bot with no agent", got.ControlMode, got.AssignedAgentID)
	}
}

func TestSetControl_Errors(t *testing.T) {
	s, db, _ := newTestServer(t)
	chat := seedChat(t, db, testUser)

	w := doJSON(t, s, http.MethodPut, fmt.Sprintf("/api/chats/%d/control", chat.ID), `{"mode": "robot"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unknown mode", w.Code)
	}

	w = doJSON(t, s, http.MethodPut, "/api/chats/999/control", `{"mode": "agent"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for unknown chat", w.Code)
	}
}

func TestListOrders(t *testing.T) {
	s, db, _ := newTestServer(t)
	chat := seedChat(t, db, testUser)

	details := store.OrderDetails{
		ProductName:     "Kit Óscar Camarra",
		CustomerName:    "Ana Pérez",
		DeliveryAddress: "Calle 10 #4-21, Medellín",
		PaymentMethod:   "Contraentrega",
	}
	order, err := store.SaveOrder(db, chat.ID, testUser, details)
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
	if err := store.UpdateOrderStatus(db, order.ID, models.OrderConfirmed); err != nil {
		t.Fatalf("confirm order: %v", err)
	}
	if _, err := store.SaveOrder(db, chat.ID, testUser, details); err != nil {
		t.Fatalf("seed second order: %v", err)
	}

	w := doJSON(t, s, http.MethodGet, "/api/orders", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var all []orderView
	if err := json.Unmarshal(decodeBody(t, w)["orders"], &all); err != nil {
		t.Fatalf("decode orders: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len(orders) = %d, want 2", len(all))
	}

	w = doJSON(t, s, http.MethodGet, "/api/orders?status=confirmed", "")
	var confirmed []orderView
	if err := json.Unmarshal(decodeBody(t, w)["orders"], &confirmed); err != nil {
		t.Fatalf("decode orders: %v", err)
	}
	if len(confirmed) != 1 || confirmed[0].ID != order.ID {
		t.Errorf("filtered orders = %+v, want only the confirmed one", confirmed)
	}

	if w := doJSON(t, s, http.MethodGet, "/api/orders?status=lost", ""); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unknown status filter", w.Code)
	}
}

func TestOrderStatus(t *testing.T) {
	s, db, _ := newTestServer(t)
	chat := seedChat(t, db, testUser)

	order, err := store.SaveOrder(db, chat.ID, testUser, store.OrderDetails{
		ProductName:     "Kit Óscar Camarra",
		CustomerName:    "Ana Pérez",
		DeliveryAddress: "Calle 10 #4-21, Medellín",
		PaymentMethod:   "Transferencia Bancaria",
	})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}

	w := doJSON(t, s, http.MethodPut, fmt.Sprintf("/api/orders/%d/status", order.ID),
		`{"status": "shipped"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var got models.Order
	if err := db.First(&got, order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if got.Status != models.OrderShipped {
		t.Errorf("order status = %q, want shipped", got.Status)
	}
}

func TestOrderStatus_Errors(t *testing.T) {
	s, db, _ := newTestServer(t)
	chat := seedChat(t, db, testUser)

	order, err := store.SaveOrder(db, chat.ID, testUser, store.OrderDetails{
		ProductName:     "Kit Óscar Camarra",
		CustomerName:    "Ana",
		DeliveryAddress: "Calle 1",
		PaymentMethod:   "Contraentrega",
	})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}

	w := doJSON(t, s, http.MethodPut, fmt.Sprintf("/api/orders/%d/status", order.ID),
		`{"status": "teleported"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for invalid status", w.Code)
	}

	w = doJSON(t, s, http.MethodPut, "/api/orders/999/status", `{"status": "shipped"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for unknown order", w.Code)
	}
}
