package facebook

// Event is the body of a webhook POST.
type Event struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry groups the messaging events of one page.
type Entry struct {
	ID        string      `json:"id"`
	Time      int64       `json:"time"`
	Messaging []Messaging `json:"messaging"`
}

type Party struct {
	ID string `json:"id"`
}

// Messaging is a single messaging event. Message is nil for deliveries,
// reads and postbacks.
type Messaging struct {
	Sender    Party    `json:"sender"`
	Recipient Party    `json:"recipient"`
	Timestamp int64    `json:"timestamp"`
	Message   *Message `json:"message,omitempty"`
}

type Message struct {
	Mid         string       `json:"mid"`
	Text        string       `json:"text"`
	IsEcho      bool         `json:"is_echo,omitempty"`
	AppID       int64        `json:"app_id,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type Attachment struct {
	Type string `json:"type"`
}

// IsCustomerText reports whether the event is a text message sent by a
// customer, the only kind that gets a reply.
func (m Messaging) IsCustomerText() bool {
	return m.Message != nil && !m.Message.IsEcho && m.Message.Text != ""
}
