package whatsapp

import "strings"

// WebhookPayload is the body Meta posts to the webhook for message events.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry groups changes for one business account.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change carries a single field update.
type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

// Value is the "messages" field payload.
type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Contacts         []Contact `json:"contacts"`
	Messages         []Message `json:"messages"`
	Statuses         []Status  `json:"statuses"`
}

// Contact is the sender's WhatsApp profile.
type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

// Message is an inbound user message.
type Message struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
	Audio *Media `json:"audio,omitempty"`
}

// Media references an uploaded attachment.
type Media struct {
	ID       string `json:"id"`
	MIMEType string `json:"mime_type"`
	Voice    bool   `json:"voice,omitempty"`
}

// Status is a delivery receipt for an outbound message. Receipts are ignored.
type Status struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// InboundMessage is a normalized user message ready for the chat pipeline.
type InboundMessage struct {
	From        string
	ProfileName string
	MessageID   string
	Text        string
	Audio       *Media
}

// IsAudio reports whether the message carries a voice note or audio file.
func (m InboundMessage) IsAudio() bool {
	return m.Audio != nil && m.Audio.ID != ""
}

// Messages flattens the payload into the text and audio messages it carries.
// Other message types and status receipts are skipped.
func (p *WebhookPayload) Messages() []InboundMessage {
	var out []InboundMessage
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			names := make(map[string]string, len(change.Value.Contacts))
			for _, c := range change.Value.Contacts {
				names[c.WaID] = c.Profile.Name
			}
			for _, msg := range change.Value.Messages {
				in := InboundMessage{
					From:        NormalizeNumber(msg.From),
					ProfileName: names[msg.From],
					MessageID:   msg.ID,
				}
				switch {
				case msg.Type == "text" && msg.Text != nil:
					in.Text = strings.TrimSpace(msg.Text.Body)
					if in.Text == "" {
						continue
					}
				case msg.Type == "audio" && msg.Audio != nil && msg.Audio.ID != "":
					in.Audio = msg.Audio
				default:
					continue
				}
				if in.From == "" {
					continue
				}
				out = append(out, in)
			}
		}
	}
	return out
}

// NormalizeNumber strips everything but digits, so "+55 (11) 99999-0000"
// and "5511999990000" identify the same sender.
func NormalizeNumber(number string) string {
	var b strings.Builder
	b.Grow(len(number))
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// VerifyChallenge implements the subscription handshake: it returns the
// challenge to echo when mode is "subscribe" and token equals expected.
// An empty expected token never verifies.
func VerifyChallenge(mode, token, challenge, expected string) (string, bool) {
	if expected == "" || mode != "subscribe" || token != expected {
		return "", false
	}
	return challenge, true
}
