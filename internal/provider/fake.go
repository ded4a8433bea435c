package provider

import "context"

// FakeProvider returns a canned response or error; for tests.
type FakeProvider struct {
	ResponseText string
	Error        error

	// LastRequest records the most recent request for assertions.
	LastRequest *Request
}

func NewFake(response string) *FakeProvider {
	return &FakeProvider{ResponseText: response}
}

func (f *FakeProvider) ChatCompletion(_ context.Context, req *Request) (*Response, error) {
	f.LastRequest = req
	if f.Error != nil {
		return nil, f.Error
	}
	return &Response{
		Content: f.ResponseText,
		Usage:   Usage{PromptTokens: 2, CompletionTokens: 3, TotalTokens: 5},
	}, nil
}
