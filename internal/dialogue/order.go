package dialogue

import (
	"fmt"

	"github.com/Nolger/chatbot/internal/session"
	"github.com/Nolger/chatbot/internal/store"
)

// ProductKitOscar is the catalog item the order flow sells.
const ProductKitOscar = "Kit Óscar Camarra"

// Payment option ids and the method names they resolve to.
const (
	OptPaymentCash     = "payment_contraentrega"
	OptPaymentTransfer = "payment_transferencia"

	paymentCashName     = "Contraentrega"
	paymentTransferName = "Transferencia Bancaria"
)

const askNameText = "¡Perfecto! Para tomar tu pedido del Kit Óscar Camarra, necesitaré algunos datos. 😊\n\n" +
	"Primero, ¿cuál es tu nombre completo?"

const askPaymentText = "Perfecto. 👍 El Kit Óscar Camarra tiene un costo de [PRECIO DEL KIT]. " +
	"Puedes pagar contraentrega o por transferencia bancaria. ¿Cuál prefieres?"

// advanceOrder moves the order-collection flow one step. Every step accepts
// arbitrary text; the flow can only advance or finish, never reject input.
func (e *Engine) advanceOrder(userID string, st session.State, input, normalized string) (Response, error) {
	switch st.Step {
	case session.StepAwaitingName:
		st.Draft.Product = ProductKitOscar
		st.Draft.Name = input
		st.Step = session.StepAwaitingAddress
		e.sessions.Put(userID, st)
		return textResponse(fmt.Sprintf(
			"¡Gracias, %s! 😊 Ahora, por favor, indícame tu dirección completa para el envío. 🚚",
			input)), nil

	case session.StepAwaitingAddress:
		st.Draft.Address = input
		st.Step = session.StepAwaitingPayment
		e.sessions.Put(userID, st)
		return buttonsResponse(askPaymentText, []Button{
			{ID: OptPaymentCash, Label: "Contraentrega 💳"},
			{ID: OptPaymentTransfer, Label: "Transferencia 🏦"},
		}), nil

	case session.StepAwaitingPayment:
		switch normalized {
		case OptPaymentCash:
			st.Draft.PaymentMethod = paymentCashName
		case OptPaymentTransfer:
			st.Draft.PaymentMethod = paymentTransferName
		default:
			// Free-text answers are stored verbatim.
			st.Draft.PaymentMethod = input
		}
		return e.finishOrder(userID, st)

	default:
		// Unknown step: drop the broken session and route through the menu.
		e.sessions.Delete(userID)
		return e.menuReply(userID, normalized)
	}
}

// finishOrder persists the completed draft and ends the flow. The session is
// deleted only after a successful insert, so a failed write leaves the user
// at the payment step and the turn unanswered.
func (e *Engine) finishOrder(userID string, st session.State) (Response, error) {
	chat, err := store.GetOrCreateChat(e.db, userID)
	if err != nil {
		return noneResponse(), err
	}

	order, err := store.SaveOrder(e.db, chat.ID, userID, store.OrderDetails{
		ProductName:     st.Draft.Product,
		CustomerName:    st.Draft.Name,
		DeliveryAddress: st.Draft.Address,
		PaymentMethod:   st.Draft.PaymentMethod,
	})
	if err != nil {
		return noneResponse(), err
	}

	e.sessions.Delete(userID)

	summary := fmt.Sprintf(
		"¡Tu pedido del Kit Óscar Camarra ha sido registrado! 🎉\n\n"+
			"Resumen de tu pedido:\n"+
			"👤 Nombre: %s\n"+
			"🏠 Dirección: %s\n"+
			"💳 Método de Pago: %s\n"+
			"🛍️ Producto: %s\n"+
			"🧾 Referencia: %s\n\n"+
			"Nos pondremos en contacto contigo en breve para confirmar los últimos detalles "+
			"y coordinar la entrega. ¡Gracias por tu compra!",
		st.Draft.Name, st.Draft.Address, st.Draft.PaymentMethod, st.Draft.Product, order.Reference)

	return buttonsResponse(summary, []Button{
		{ID: OptMainMenu, Label: "Menú Principal 🏠"},
	}), nil
}
