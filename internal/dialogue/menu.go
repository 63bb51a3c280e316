package dialogue

import (
	"github.com/Nolger/chatbot/internal/models"
	"github.com/Nolger/chatbot/internal/session"
	"github.com/Nolger/chatbot/internal/store"
)

// Option ids carried by interactive replies. These are the wire ids the menu
// and button messages advertise, and what comes back when the user taps one.
const (
	OptKitOscar    = "opt_kit_oscar"
	OptOrderKitYes = "pedir_kit_oscar_si"
	OptCatalog     = "opt_catalogo"
	OptCustomize   = "opt_personalizar"
	OptOrderStatus = "opt_consultar_pedido"
	OptTalkToAgent = "opt_hablar_asesor"
	OptMainMenu    = "menu_principal"
)

const fallbackText = "Lo siento, no entendí tu solicitud. 🤔 Escribe 'hola' para ver las opciones."

const menuText = "¡Hola! 👋 Bienvenido al Chat Oficial de Carlos Piña Viste y Vive.\n" +
	"Tu estilo comienza aquí. ✨\n\n" +
	"Soy tu asistente virtual y estoy para ayudarte. 😊 Selecciona una opción:"

const kitPitchText = "🌟 ¡Descubre el exclusivo Kit de Lanzamiento de Óscar Camarra! 🌟\n" +
	"Un conjunto diseñado para destacar tu estilo con clase y autenticidad.\n\n" +
	"Incluye:\n" +
	"👕 Una camisa edición especial\n" +
	"🧢 Una gorra bordada\n" +
	"🎁 Empaque de lujo\n\n" +
	"🚚 La entrega se realiza en un día hábil (sujeto a disponibilidad).\n" +
	"💳 Puedes pagar contraentrega o por transferencia.\n\n" +
	"¿Te gustaría hacer tu pedido ahora?"

const catalogText = "🛍️ Nuestro Catálogo de Prendas 🧥\n\n" +
	"Descubre nuestra amplia variedad de camisas, camisetas, gorras, trajes y más. " +
	"Para ver el catálogo completo y actualizado, por favor visita el siguiente enlace:\n\n" +
	"🔗 [Aquí va tu enlace al catálogo en WhatsApp o web]\n\n" +
	"Si algo te interesa, puedes indicarme el nombre del artículo o su código. 😉"

const customizeHandoffText = "🎨 ¿Quieres una prenda única? ¡Genial!\n" +
	"Para personalizar un producto, te conectaré con uno de nuestros asesores expertos. " +
	"Ellos te guiarán en el proceso. 🧑‍🎨\n\n" +
	"Por favor, espera un momento."

const orderStatusHandoffText = "🚚 Para consultar el estado de tu pedido, un asesor te atenderá en breve.\n\n" +
	"Ten en cuenta que, dependiendo de la hora de tu solicitud y la disponibilidad, " +
	"la entrega puede ser en horas o al día siguiente hábil.\n\n" +
	"Un asesor se comunicará contigo por este chat. ⏳"

const agentHandoffText = "💬 ¡Claro! Estoy conectándote con un asesor para que pueda atender tu solicitud personalmente.\n\n" +
	"Por favor, espera unos momentos. Agradecemos tu paciencia. 🙏"

// isGreeting reports whether a normalized input should open the main menu.
func isGreeting(normalized string) bool {
	switch normalized {
	case "hola", "menú", "menu", "inicio", "menu_principal", "menu_principal_parte1":
		return true
	}
	return false
}

// menuReply routes a turn with no active flow. Every unmatched input falls
// through to the "didn't understand" text with no side effects.
func (e *Engine) menuReply(userID, normalized string) (Response, error) {
	switch {
	case isGreeting(normalized):
		return listResponse(menuText, mainMenuList()), nil

	case normalized == OptKitOscar:
		return buttonsResponse(kitPitchText, []Button{
			{ID: OptOrderKitYes, Label: "Sí, pedir ahora 👍"},
			{ID: OptMainMenu, Label: "Menú Principal 🏠"},
		}), nil

	case normalized == OptOrderKitYes:
		e.sessions.Put(userID, session.State{
			Action: session.ActionCollectingOrder,
			Step:   session.StepAwaitingName,
		})
		return textResponse(askNameText), nil

	case normalized == OptCatalog:
		return buttonsResponse(catalogText, []Button{
			{ID: OptMainMenu, Label: "Menú Principal 🏠"},
		}), nil

	case normalized == OptCustomize:
		return e.handOff(userID, customizeHandoffText)

	case normalized == OptOrderStatus:
		return e.handOff(userID, orderStatusHandoffText)

	case normalized == OptTalkToAgent:
		return e.handOff(userID, agentHandoffText)

	default:
		return textResponse(fallbackText), nil
	}
}

// mainMenuList builds the five-option main menu.
func mainMenuList() *List {
	return &List{
		ButtonLabel: "Ver Opciones 👇",
		Header:      "MENÚ PRINCIPAL",
		Sections: []Section{
			{
				Rows: []Row{
					{ID: OptKitOscar, Title: "👕 Kit Óscar Camarra"},
					{ID: OptCatalog, Title: "📚 Ver Catálogo"},
					{ID: OptCustomize, Title: "🎨 Personalizar Producto"},
					{ID: OptOrderStatus, Title: "🚚 Consultar Pedido"},
					{ID: OptTalkToAgent, Title: "💬 Hablar con Asesor"},
				},
			},
		},
	}
}

// handOff flips the conversation to agent control and emits the handoff text.
// If the control-mode write fails the turn is aborted: replying while control
// is uncertain would race the human agent.
func (e *Engine) handOff(userID, body string) (Response, error) {
	if err := store.SetControlMode(e.db, userID, models.ControlAgent, nil); err != nil {
		return noneResponse(), err
	}
	return textResponse(body), nil
}
