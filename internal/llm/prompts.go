package llm

import "fmt"

func float(v float64) *float64 { return &v }

const sentimentPrompt = `Analyze the sentiment of this TA feedback text. Respond with ONLY a JSON object in this exact format: {"score": -1.0 to 1.0, "label": "positive" or "neutral" or "negative"}. Score: -1.0 is very negative, 0.0 is neutral, 1.0 is very positive. Label: "positive" if score > 0.2, "negative" if score < -0.2, otherwise "neutral".

Text: %s`

const (
	summaryInstruction = "Concisely summarize these TA observations into a single line focused on student comprehension and engagement, without any commentary:"
	summaryAck         = "I will provide a single-line summary focused on student comprehension and engagement."
)

// SentimentRequest 情感分析请求：要求模型只回复 {score, label}
func SentimentRequest(text string) Request {
	return Request{
		Messages: []Message{
			{Role: RoleUser, Content: fmt.Sprintf(sentimentPrompt, text)},
		},
		MaxTokens:   100,
		Temperature: float(0.3),
	}
}

// SummaryRequest 助教反馈单行摘要请求
func SummaryRequest(feedbackText string) Request {
	return Request{
		Messages: []Message{
			{Role: RoleUser, Content: summaryInstruction},
			{Role: RoleAssistant, Content: summaryAck},
			{Role: RoleUser, Content: feedbackText},
		},
		MaxTokens:        4096,
		Temperature:      float(0.6),
		TopP:             float(1),
		TopK:             40,
		PresencePenalty:  float(0),
		FrequencyPenalty: float(0),
	}
}
