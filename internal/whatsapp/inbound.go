package whatsapp

// Canonical inbound message kinds.
const (
	KindText              = "text"
	KindInteractiveButton = "interactive_button"
	KindInteractiveList   = "interactive_list"
)

// webhookObject identifies event deliveries for a WhatsApp Business account.
const webhookObject = "whatsapp_business_account"

// Payload is the envelope the Cloud API posts to the webhook endpoint.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry is one account-level entry in a webhook delivery.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change is one field change; only "messages" changes carry user messages.
type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

// ChangeValue carries the messages of a "messages" change.
type ChangeValue struct {
	Messages []RawMessage `json:"messages"`
}

// RawMessage is one provider-shaped message.
type RawMessage struct {
	From        string            `json:"from"`
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Text        *TextContent      `json:"text,omitempty"`
	Interactive *InteractiveReply `json:"interactive,omitempty"`
}

// TextContent is the body of a plain text message.
type TextContent struct {
	Body string `json:"body"`
}

// InteractiveReply is the user's selection from a button or list message.
type InteractiveReply struct {
	Type        string       `json:"type"` // "button_reply" or "list_reply"
	ButtonReply *OptionReply `json:"button_reply,omitempty"`
	ListReply   *OptionReply `json:"list_reply,omitempty"`
}

// OptionReply carries the selected option's opaque id and visible title.
type OptionReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Inbound is the canonical (sender, kind, content) tuple the dispatcher
// routes. For interactive replies Content is the selected option's id.
type Inbound struct {
	From    string
	Kind    string
	Content string
}

// IsWhatsApp reports whether the payload is a WhatsApp Business event.
func (p *Payload) IsWhatsApp() bool {
	return p.Object == webhookObject
}

// Messages extracts the canonical messages from a webhook delivery. Media and
// other unsupported kinds are dropped, as are messages with no extractable
// content; surviving siblings are unaffected.
func (p *Payload) Messages() []Inbound {
	var out []Inbound
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			for _, raw := range change.Value.Messages {
				if msg, ok := extract(raw); ok {
					out = append(out, msg)
				}
			}
		}
	}
	return out
}

// extract maps one provider message to its canonical form.
func extract(raw RawMessage) (Inbound, bool) {
	if raw.From == "" {
		return Inbound{}, false
	}

	switch raw.Type {
	case "text":
		if raw.Text == nil || raw.Text.Body == "" {
			return Inbound{}, false
		}
		return Inbound{From: raw.From, Kind: KindText, Content: raw.Text.Body}, true

	case "interactive":
		if raw.Interactive == nil {
			return Inbound{}, false
		}
		switch raw.Interactive.Type {
		case "button_reply":
			if raw.Interactive.ButtonReply == nil || raw.Interactive.ButtonReply.ID == "" {
				return Inbound{}, false
			}
			return Inbound{From: raw.From, Kind: KindInteractiveButton, Content: raw.Interactive.ButtonReply.ID}, true
		case "list_reply":
			if raw.Interactive.ListReply == nil || raw.Interactive.ListReply.ID == "" {
				return Inbound{}, false
			}
			return Inbound{From: raw.From, Kind: KindInteractiveList, Content: raw.Interactive.ListReply.ID}, true
		}
		return Inbound{}, false

	default:
		// Media, reactions, stickers and the rest are stored nowhere and
		// never reach the engine.
		return Inbound{}, false
	}
}
