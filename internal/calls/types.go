package calls

// Profile is the public profile attached to a call participant.
type Profile struct {
	JobTitle    string `json:"job_title"`
	Location    string `json:"location"`
	PhotoURL    string `json:"photo_url"`
	LinkedInURL string `json:"linkedin_url"`
}

// Party is one participant of a recorded call.
type Party struct {
	Name    string   `json:"name"`
	Email   string   `json:"email,omitempty"`
	Profile *Profile `json:"profile,omitempty"`
}

// CallMetadata describes a recorded call for display. It is never mutated
// after being decoded.
type CallMetadata struct {
	CallID    string  `json:"call_id"`
	Title     string  `json:"title"`
	Duration  int     `json:"duration"`
	StartTime string  `json:"start_time"`
	Parties   []Party `json:"parties"`
}

// Roles used in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// QAMessage is one role-tagged entry of the history replayed to the backend.
type QAMessage struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

type questionPayload struct {
	Question            string      `json:"question"`
	ConversationHistory []QAMessage `json:"conversation_history"`
}
