package domain

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single conversation turn as exchanged with callers and the
// upstream generator. Roles are passed through without validation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CloneHistory returns a copy of history so appends never reach the caller's
// backing array. A nil history yields an empty, non-nil slice.
func CloneHistory(history []ChatMessage, extra int) []ChatMessage {
	out := make([]ChatMessage, len(history), len(history)+extra)
	copy(out, history)
	return out
}
