package engine

// heuristic.go implements the local, network-free fallback paths used when
// the remote model is disabled or a remote call fails.  Matching is
// case-insensitive substring containment, first match wins, so the priority
// order below is load-bearing: greeting > help > request > question > chitchat.

import (
	"hash/fnv"
	"strings"
)

// Keyword tables for the fallback classifier.  Each slice is checked in
// order against the lower-cased message text.
var (
	greetingWords = []string{"hello", "hi", "hey", "good morning", "good evening"}
	helpWords     = []string{"help", "how to", "what is", "explain"}
	requestWords  = []string{"please", "can you", "could you", "would you"}

	positiveWords = []string{"great", "good", "excellent", "love", "amazing", "happy"}
	negativeWords = []string{"bad", "terrible", "awful", "hate", "angry", "frustrated"}
)

// Fixed reply lines for the fallback responder.
const (
	greetingReply = "Hello! Nice to meet you. How can I help you today?"
	thanksReply   = "You're welcome! Is there anything else I can help you with?"
	farewellReply = "Goodbye! Feel free to message me anytime you need help."
	questionReply = "That's a great question! I'm here to help, though my AI features might be limited right now."
)

// Keyword tables for the fallback responder.  Intentionally narrower than
// the classifier lists: "good morning" should not trigger the canned
// greeting reply on its own.
var (
	replyGreetingWords = []string{"hello", "hi", "hey"}
	replyThanksWords   = []string{"thanks", "thank you"}
	replyFarewellWords = []string{"bye", "goodbye", "see you"}
)

// genericReplies are the acknowledgment lines used when no keyword matches.
// One is picked deterministically per message text (see pickAcknowledgment).
var genericReplies = []string{
	"I understand. How can I help you with that?",
	"That's interesting! Tell me more.",
	"I'm here to help. What would you like to know?",
	"Thanks for sharing that with me.",
	"I see. Is there anything specific you'd like assistance with?",
}

// heuristicAnalysis classifies a message using keyword matching only.
// It never fails and is a pure function of the message text.
func heuristicAnalysis(message string) IntentResult {
	m := strings.ToLower(message)

	var intent Intent
	switch {
	case containsAny(m, greetingWords):
		intent = IntentGreeting
	case containsAny(m, helpWords):
		intent = IntentHelp
	case containsAny(m, requestWords):
		intent = IntentRequest
	case strings.Contains(m, "?"):
		intent = IntentQuestion
	default:
		intent = IntentChitchat
	}

	sentiment := SentimentNeutral
	switch {
	case containsAny(m, positiveWords):
		sentiment = SentimentPositive
	case containsAny(m, negativeWords):
		sentiment = SentimentNegative
	}

	return IntentResult{
		Intent:    intent,
		Sentiment: sentiment,
		Topic:     TopicGeneral,
	}
}

// heuristicReply produces the canned fallback reply for a message.
// It never returns an empty string and is a pure function of the message text.
func heuristicReply(message string) string {
	m := strings.ToLower(message)

	switch {
	case containsAny(m, replyGreetingWords):
		return greetingReply
	case containsAny(m, replyThanksWords):
		return thanksReply
	case containsAny(m, replyFarewellWords):
		return farewellReply
	case strings.Contains(m, "?"):
		return questionReply
	}
	return pickAcknowledgment(message)
}

// pickAcknowledgment selects one of the generic acknowledgment lines by a
// stable FNV-1a hash of the message text, so the same input always yields
// the same line regardless of process or platform.
func pickAcknowledgment(message string) string {
	h := fnv.New32a()
	h.Write([]byte(message))
	return genericReplies[h.Sum32()%uint32(len(genericReplies))]
}

// containsAny reports whether text contains any of the given substrings.
func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
