package conversation

import "callqa/internal/calls"

// Project maps committed exchanges to the history sent with the next
// question: nothing when includeHistory is off, otherwise a user message
// followed by an assistant message per exchange, oldest first. The result is
// never nil so it always encodes as a JSON array.
func Project(exchanges []Exchange, includeHistory bool) []calls.QAMessage {
	if !includeHistory {
		return []calls.QAMessage{}
	}
	out := make([]calls.QAMessage, 0, 2*len(exchanges))
	for _, ex := range exchanges {
		out = append(out,
			calls.QAMessage{Content: ex.Question, Role: calls.RoleUser},
			calls.QAMessage{Content: ex.Answer, Role: calls.RoleAssistant},
		)
	}
	return out
}
