// Package whatsapp speaks the WhatsApp Cloud API: outbound message delivery
// and inbound webhook payload decoding.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const defaultBaseURL = "https://graph.facebook.com"

// maxReplyButtons is the Cloud API limit on reply buttons per message.
const maxReplyButtons = 3

// Button is one outbound reply button.
type Button struct {
	ID    string
	Title string
}

// Row is one selectable entry in an outbound list section.
type Row struct {
	ID          string
	Title       string
	Description string
}

// Section groups rows in an outbound list message.
type Section struct {
	Title string
	Rows  []Row
}

// Sender is the outbound delivery contract the dispatcher depends on.
// Implemented by Client; mocked in tests.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
	SendButtons(ctx context.Context, to, body string, buttons []Button, header, footer string) error
	SendList(ctx context.Context, to, body, buttonLabel string, sections []Section, header, footer string) error
}

// Client sends messages through the Cloud API's /messages endpoint.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	accessToken   string
	phoneNumberID string
	apiVersion    string
}

// ClientOpts holds parameters for creating a Client.
type ClientOpts struct {
	AccessToken   string
	PhoneNumberID string
	APIVersion    string
	BaseURL       string       // defaults to the Graph API host
	HTTPClient    *http.Client // defaults to a client with a request timeout
}

// NewClient creates a Client.
func NewClient(opts ClientOpts) (*Client, error) {
	if opts.AccessToken == "" {
		return nil, fmt.Errorf("whatsapp: access token is required")
	}
	if opts.PhoneNumberID == "" {
		return nil, fmt.Errorf("whatsapp: phone number id is required")
	}
	if opts.APIVersion == "" {
		opts.APIVersion = "v19.0"
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		httpClient:    opts.HTTPClient,
		baseURL:       opts.BaseURL,
		accessToken:   opts.AccessToken,
		phoneNumberID: opts.PhoneNumberID,
		apiVersion:    opts.APIVersion,
	}, nil
}

// Wire shapes for the /messages endpoint.

type outboundPayload struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             *textBody    `json:"text,omitempty"`
	Interactive      *interactive `json:"interactive,omitempty"`
}

type textBody struct {
	Body string `json:"body"`
}

type interactive struct {
	Type   string             `json:"type"` // "button" or "list"
	Header *interactiveHeader `json:"header,omitempty"`
	Body   textBody           `json:"body"`
	Footer *interactiveFooter `json:"footer,omitempty"`
	Action interactiveAction  `json:"action"`
}

type interactiveHeader struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type interactiveFooter struct {
	Text string `json:"text"`
}

type interactiveAction struct {
	Buttons []replyButton `json:"buttons,omitempty"`
	Button  string        `json:"button,omitempty"`
	Sections []listSection `json:"sections,omitempty"`
}

type replyButton struct {
	Type  string      `json:"type"`
	Reply buttonReply `json:"reply"`
}

type buttonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type listSection struct {
	Title string    `json:"title,omitempty"`
	Rows  []listRow `json:"rows"`
}

type listRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// SendText delivers a plain text message.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	return c.send(ctx, to, outboundPayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &textBody{Body: body},
	})
}

// SendButtons delivers an interactive button message. Without buttons it
// degrades to plain text; beyond three buttons only the first three are kept.
func (c *Client) SendButtons(ctx context.Context, to, body string, buttons []Button, header, footer string) error {
	if len(buttons) == 0 {
		log.Printf("whatsapp: button message for %s has no buttons, sending text", to)
		return c.SendText(ctx, to, body)
	}
	if len(buttons) > maxReplyButtons {
		log.Printf("whatsapp: trimming %d buttons to %d for %s", len(buttons), maxReplyButtons, to)
		buttons = buttons[:maxReplyButtons]
	}

	replies := make([]replyButton, len(buttons))
	for i, b := range buttons {
		replies[i] = replyButton{Type: "reply", Reply: buttonReply{ID: b.ID, Title: b.Title}}
	}

	inter := &interactive{
		Type:   "button",
		Body:   textBody{Body: body},
		Action: interactiveAction{Buttons: replies},
	}
	if header != "" {
		inter.Header = &interactiveHeader{Type: "text", Text: header}
	}
	if footer != "" {
		inter.Footer = &interactiveFooter{Text: footer}
	}

	return c.send(ctx, to, outboundPayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "interactive",
		Interactive:      inter,
	})
}

// SendList delivers an interactive list message. At least one row is required.
func (c *Client) SendList(ctx context.Context, to, body, buttonLabel string, sections []Section, header, footer string) error {
	rows := 0
	for _, s := range sections {
		rows += len(s.Rows)
	}
	if rows == 0 {
		return fmt.Errorf("whatsapp: list message for %s has no rows", to)
	}

	wireSections := make([]listSection, len(sections))
	for i, s := range sections {
		ws := listSection{Title: s.Title, Rows: make([]listRow, len(s.Rows))}
		for j, r := range s.Rows {
			ws.Rows[j] = listRow{ID: r.ID, Title: r.Title, Description: r.Description}
		}
		wireSections[i] = ws
	}

	inter := &interactive{
		Type:   "list",
		Body:   textBody{Body: body},
		Action: interactiveAction{Button: buttonLabel, Sections: wireSections},
	}
	if header != "" {
		inter.Header = &interactiveHeader{Type: "text", Text: header}
	}
	if footer != "" {
		inter.Footer = &interactiveFooter{Text: footer}
	}

	return c.send(ctx, to, outboundPayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "interactive",
		Interactive:      inter,
	})
}

// send posts one payload to the /messages endpoint.
func (c *Client) send(ctx context.Context, to string, payload outboundPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("whatsapp: marshal payload for %s: %w", to, err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.apiVersion, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("whatsapp: build request for %s: %w", to, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: send to %s: %w", to, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("whatsapp: send to %s: status %d: %s", to, resp.StatusCode, detail)
	}
	return nil
}
