package formspam

import "context"

// NewOpenAIWithClient makes OpenAI completer using the given client for any key
func NewOpenAIWithClient(client openAIClient) *OpenAI {
	res := NewOpenAI("")
	res.newClient = func(string) openAIClient { return client }
	return res
}

// NewGeminiWithClient makes Gemini completer using the given client for any key
func NewGeminiWithClient(client geminiClient, err error) *Gemini {
	res := NewGemini()
	res.newClient = func(context.Context, string) (geminiClient, error) { return client, err }
	return res
}
