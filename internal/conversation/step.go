package conversation

import "strings"

// Stateless per-turn script for the outbound voice interaction. Each call of
// Respond maps one recognized utterance to a scripted reply; no state is held
// across turns or calls.

// Greeting opens every answered call.
const Greeting = "Hello, this is an automated calling agent. Thank you for your time today."

// Prompt follows the greeting and opens the speech gather.
const Prompt = "How can I help you today? Please speak after the tone."

// Reply is one scripted spoken response.
type Reply struct {
	Text string

	// Escalate marks a help intent; the caller may bridge to a human agent.
	Escalate bool
}

var (
	helpWords     = []string{"help", "support", "issue", "problem"}
	greetingWords = []string{"hello", "hi ", "hey"}
	closingWords  = []string{"thank", "thanks", "goodbye", "bye"}
)

// Respond classifies an utterance by keyword containment over a small fixed
// vocabulary. Help intent is checked before everything else; ties resolve in
// priority order help > greeting > closing > fallback.
func Respond(utterance string) Reply {
	text := " " + strings.ToLower(strings.TrimSpace(utterance)) + " "

	if containsAny(text, helpWords) {
		return Reply{
			Text:     "I understand you need help. Let me connect you to a support representative.",
			Escalate: true,
		}
	}
	if containsAny(text, greetingWords) {
		return Reply{Text: "Hello! " + Prompt}
	}
	if containsAny(text, closingWords) {
		return Reply{Text: "You're welcome. Have a great day!"}
	}
	return Reply{Text: "Thank you for your response. Have a great day!"}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
