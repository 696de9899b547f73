package convo

import "strings"

const greetingTopicLimit = 50

// ElaborateContext rewrites the caller's topic text into an instruction that
// makes the avatar engage with the topic directly instead of opening with a
// generic "how can I help". Pure string transform, no model involved.
func ElaborateContext(topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString("The user wants to have a conversation about the following topic: ")
	b.WriteString(topic)
	b.WriteString(" Engage with this topic directly and substantively from your first response. ")
	b.WriteString("Do not ask how you can help; assume the topic above is what the user wants to discuss.")
	return b.String()
}

// DeriveGreeting builds a personalized opening line from the first sentence
// of the topic, truncated to roughly 50 characters on a word boundary.
func DeriveGreeting(topic string) string {
	sentence := firstSentence(strings.TrimSpace(topic))
	if sentence == "" {
		return ""
	}

	if len(sentence) > greetingTopicLimit {
		cut := sentence[:greetingTopicLimit]
		if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
			cut = cut[:idx]
		}
		sentence = cut + "..."
	}

	return "Hi! I hear you want to talk about " + sentence + " Let's get into it."
}

func firstSentence(s string) string {
	for i, r := range s {
		switch r {
		case '.', '!', '?':
			return strings.TrimSpace(s[:i+1])
		}
	}
	return s
}
