package chat

import "github.com/zhouzirui/medibot/backend/internal/analysis/emotion"

// Message is a single user utterance. It lives for one request only.
type Message struct {
	Text string `json:"message"`
}

// Answer is the generator output before the empathy prefix is applied.
type Answer struct {
	Text string `json:"text"`
}

// Response is the composed reply returned to the user.
type Response struct {
	Text    string        `json:"text"`
	Emotion emotion.Label `json:"emotion"`
	// Failed marks replies produced by the degraded path.
	Failed bool `json:"failed,omitempty"`
}
