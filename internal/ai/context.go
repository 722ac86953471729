package ai

import "sync"

// Role identifies the sender of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const defaultHistory = 20

// Message is one turn of a chat with the assistant.
type Message struct {
	Role    Role
	Content string
}

// Conversation is the running chat history with the assistant. Once it holds
// more than its limit the oldest turns are dropped, except the first one.
type Conversation struct {
	mu          sync.Mutex
	messages    []Message
	maxMessages int
}

// NewConversation creates an empty conversation that keeps at most
// maxMessages turns. A non-positive limit selects 20.
func NewConversation(maxMessages int) *Conversation {
	if maxMessages <= 0 {
		maxMessages = defaultHistory
	}
	return &Conversation{
		messages:    make([]Message, 0, maxMessages),
		maxMessages: maxMessages,
	}
}

// Add appends a turn and trims the history.
func (c *Conversation) Add(role Role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, Message{Role: role, Content: content})
	if len(c.messages) > c.maxMessages {
		excess := len(c.messages) - c.maxMessages
		trimmed := make([]Message, 0, c.maxMessages)
		trimmed = append(trimmed, c.messages[0])
		trimmed = append(trimmed, c.messages[1+excess:]...)
		c.messages = trimmed
	}
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Reset clears the history.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = c.messages[:0]
}

// Len returns the number of stored turns.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func toChat(history []Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(history))
	for _, m := range history {
		out = append(out, ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}
