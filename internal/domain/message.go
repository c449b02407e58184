package domain

import "strings"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript record. Persona is set only on assistant
// records produced by a hat and is never sent to the completion service.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Persona string `json:"persona,omitempty"`
}

// Speaker is the display label of the record: "White Hat" for persona
// records, the capitalized role otherwise.
func (m Message) Speaker() string {
	if m.Persona != "" {
		return m.Persona + " Hat"
	}
	return capitalize(string(m.Role))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// CloneTranscript returns a copy that shares no backing array with src.
func CloneTranscript(src []Message) []Message {
	if len(src) == 0 {
		return []Message{}
	}
	return append(make([]Message, 0, len(src)), src...)
}
