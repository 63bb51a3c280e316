package dialogue

// Kind tags what the engine wants sent back to the user.
type Kind string

const (
	KindText    Kind = "text"
	KindButtons Kind = "buttons"
	KindList    Kind = "list"
	// KindNone means "produce no outbound message". It never carries
	// buttons or list data.
	KindNone Kind = "none"
)

// Button is one reply button (WhatsApp allows at most three per message).
type Button struct {
	ID    string
	Label string
}

// Row is one selectable entry in a list section.
type Row struct {
	ID          string
	Title       string
	Description string
}

// Section groups rows inside a list message.
type Section struct {
	Title string
	Rows  []Row
}

// List describes an interactive list message.
type List struct {
	ButtonLabel string
	Header      string
	Footer      string
	Sections    []Section
}

// Response is the engine's structured answer for one user turn.
type Response struct {
	Kind    Kind
	Text    string
	Buttons []Button
	List    *List
}

func textResponse(body string) Response {
	return Response{Kind: KindText, Text: body}
}

func buttonsResponse(body string, buttons []Button) Response {
	return Response{Kind: KindButtons, Text: body, Buttons: buttons}
}

func listResponse(body string, list *List) Response {
	return Response{Kind: KindList, Text: body, List: list}
}

func noneResponse() Response {
	return Response{Kind: KindNone}
}
