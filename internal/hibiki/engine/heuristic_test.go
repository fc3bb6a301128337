package engine

import "testing"

func TestHeuristicAnalysis_IntentPriority(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Intent
	}{
		{"greeting", "hello world", IntentGreeting},
		{"greeting phrase", "good morning everyone", IntentGreeting},
		{"help", "how to install it", IntentHelp},
		{"help what is", "what is a monad", IntentHelp},
		{"request", "please send the report", IntentRequest},
		{"request could you", "could you summarise it", IntentRequest},
		{"question", "does it rain tomorrow?", IntentQuestion},
		{"chitchat", "nice weather today", IntentChitchat},
		// Priority: greeting outranks help even when both match.
		{"greeting beats help", "hello, can you help me", IntentGreeting},
		// Priority: help outranks request.
		{"help beats request", "please explain the config", IntentHelp},
		// Priority: request outranks question.
		{"request beats question", "can you do it?", IntentRequest},
		// Matching is substring containment, as in the original heuristics:
		// "this" contains "hi".
		{"substring greeting", "this rocks", IntentGreeting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := heuristicAnalysis(tt.message)
			if got.Intent != tt.want {
				t.Errorf("heuristicAnalysis(%q).Intent = %q, want %q", tt.message, got.Intent, tt.want)
			}
			if got.Topic != TopicGeneral {
				t.Errorf("heuristicAnalysis(%q).Topic = %q, want %q", tt.message, got.Topic, TopicGeneral)
			}
		})
	}
}

func TestHeuristicAnalysis_Sentiment(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Sentiment
	}{
		{"positive", "that was excellent work", SentimentPositive},
		{"negative", "I hate waiting", SentimentNegative},
		{"neutral", "the meeting starts at noon", SentimentNeutral},
		{"negative scenario", "This is terrible, I hate it", SentimentNegative},
		// Positive wins when both keyword classes appear.
		{"positive beats negative", "good but also bad", SentimentPositive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := heuristicAnalysis(tt.message).Sentiment; got != tt.want {
				t.Errorf("heuristicAnalysis(%q).Sentiment = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestHeuristicAnalysis_CaseInsensitive(t *testing.T) {
	got := heuristicAnalysis("HELLO There")
	if got.Intent != IntentGreeting {
		t.Errorf("expected greeting intent for upper-case text, got %q", got.Intent)
	}
}

func TestHeuristicReply_CannedLines(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"greeting", "Hello there", greetingReply},
		{"thanks", "thanks a lot", thanksReply},
		{"farewell", "ok goodbye", farewellReply},
		{"question", "what now? I wonder", questionReply},
		// Greeting outranks the question mark check.
		{"greeting beats question", "hey, are you there?", greetingReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := heuristicReply(tt.message); got != tt.want {
				t.Errorf("heuristicReply(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestHeuristicReply_NeverEmpty(t *testing.T) {
	for _, message := range []string{"", "rambling about nothing", "zzz"} {
		if heuristicReply(message) == "" {
			t.Errorf("heuristicReply(%q) returned an empty string", message)
		}
	}
}

func TestPickAcknowledgment_Deterministic(t *testing.T) {
	const message = "just sharing some thoughts"

	first := pickAcknowledgment(message)
	for i := 0; i < 10; i++ {
		if got := pickAcknowledgment(message); got != first {
			t.Fatalf("pickAcknowledgment is not stable: got %q then %q", first, got)
		}
	}

	found := false
	for _, line := range genericReplies {
		if line == first {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("pickAcknowledgment returned %q, not in the generic reply list", first)
	}
}

func TestPickAcknowledgment_VariesByMessage(t *testing.T) {
	// FNV-1a should spread a handful of distinct messages over more than one
	// reply line; all five mapping to the same index would indicate a broken
	// hash.
	seen := make(map[string]struct{})
	for _, message := range []string{"alpha", "bravo", "charlie", "delta", "echo"} {
		seen[pickAcknowledgment(message)] = struct{}{}
	}
	if len(seen) < 2 {
		t.Errorf("expected at least 2 distinct replies over 5 messages, got %d", len(seen))
	}
}
