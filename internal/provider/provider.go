// Package provider abstracts the upstream text-generation API used by the
// retrieval-backed analysis engine.
package provider

import "context"

// Message is one chat message in a completion request.
type Message struct {
	Role    string
	Content string
}

// Request is a normalized completion request.
type Request struct {
	Model    string
	Messages []Message
}

// Usage holds token accounting reported by the upstream API.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is a normalized completion response.
type Response struct {
	Content string
	Usage   Usage
}

// Provider is the interface for upstream text-generation backends.
type Provider interface {
	ChatCompletion(ctx context.Context, req *Request) (*Response, error)
}
