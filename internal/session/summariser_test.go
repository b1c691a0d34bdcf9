package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astral-gm/astral/internal/llmprovider"
	llmmock "github.com/astral-gm/astral/internal/llmprovider/mock"
)

// erroringProvider is a minimal llmprovider.Provider whose Complete always
// fails, for exercising LLMSummariser's error wrapping.
type erroringProvider struct {
	*llmmock.Provider
}

func newErroringProvider() erroringProvider {
	return erroringProvider{Provider: llmmock.New()}
}

func (erroringProvider) Complete(context.Context, llmprovider.CompletionRequest) (*llmprovider.CompletionResponse, error) {
	return nil, errors.New("model overloaded")
}

func TestLLMSummariser_EmptyMessagesReturnsEmptyString(t *testing.T) {
	p := llmmock.New()
	s := NewLLMSummariser(p)

	result, err := s.Summarise(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.Equal(t, 0, p.Calls())
}

func TestLLMSummariser_SummarisesMessagesViaLLM(t *testing.T) {
	p := llmmock.New(llmprovider.CompletionResponse{
		Content: "The party agreed to help the innkeeper.",
	})
	s := NewLLMSummariser(p)

	msgs := []llmprovider.Message{
		{Role: "user", Content: "We'll help you, innkeeper."},
		{Role: "assistant", Content: "Thank you, brave adventurers!"},
	}

	result, err := s.Summarise(context.Background(), msgs)
	require.NoError(t, err)
	assert.Equal(t, "The party agreed to help the innkeeper.", result)
	assert.Equal(t, 1, p.Calls())
}

func TestLLMSummariser_SingleMessageSucceeds(t *testing.T) {
	p := llmmock.New(llmprovider.CompletionResponse{Content: "summary"})
	s := NewLLMSummariser(p)

	msgs := []llmprovider.Message{
		{Role: "user", Content: "You shall not pass!"},
	}

	_, err := s.Summarise(context.Background(), msgs)
	require.NoError(t, err)
}

func TestLLMSummariser_PropagatesProviderErrors(t *testing.T) {
	s := NewLLMSummariser(newErroringProvider())

	_, err := s.Summarise(context.Background(), []llmprovider.Message{
		{Role: "user", Content: "Hello"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}
