package engine

// Intent is the coarse communicative purpose of a message.
type Intent string

const (
	IntentQuestion Intent = "question"
	IntentRequest  Intent = "request"
	IntentGreeting Intent = "greeting"
	IntentChitchat Intent = "chitchat"
	IntentHelp     Intent = "help"
)

// Sentiment is the coarse emotional valence of a message.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Topic is the coarse subject area of a message.
type Topic string

const (
	TopicGeneral   Topic = "general"
	TopicTechnical Topic = "technical"
	TopicPersonal  Topic = "personal"
	TopicOther     Topic = "other"
)

// IntentResult is the classification produced for a single message.
// It is created fresh per Classify call and never persisted.
type IntentResult struct {
	Intent    Intent    `json:"intent"`
	Sentiment Sentiment `json:"sentiment"`
	Topic     Topic     `json:"topic"`
}
