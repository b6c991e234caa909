package mock

import (
	"context"
	"time"

	"github.com/kitbuilder587/product-search-bot/internal/llm"
)

type Client struct {
	Response string
	Error    error
	Delay    time.Duration

	// Responses, если задан, отдается по одному на вызов; последний залипает
	Responses []string

	CallCount  int
	LastSystem string
	LastPrompt string
	AllCalls   []LLMCall
}

type LLMCall struct {
	System string
	Prompt string
}

func New() *Client {
	return &Client{
		Response: `{"retailers": [{"vendor": "Example Store", "url": "https://example-store.com", "price": "$99.99"}], "research_summary": "mock", "total_found": 1}`,
	}
}

func (c *Client) WithResponse(response string) *Client {
	c.Response = response
	return c
}

func (c *Client) WithResponses(responses ...string) *Client {
	c.Responses = responses
	return c
}

func (c *Client) WithError(err error) *Client {
	c.Error = err
	return c
}

func (c *Client) WithDelay(delay time.Duration) *Client {
	c.Delay = delay
	return c
}

func (c *Client) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	c.CallCount++
	c.LastSystem = system
	c.LastPrompt = prompt
	c.AllCalls = append(c.AllCalls, LLMCall{System: system, Prompt: prompt})

	if c.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.Delay):
		}
	}

	if c.Error != nil {
		return "", c.Error
	}

	if len(c.Responses) > 0 {
		resp := c.Responses[0]
		if len(c.Responses) > 1 {
			c.Responses = c.Responses[1:]
		}
		return resp, nil
	}

	return c.Response, nil
}

func (c *Client) Reset() {
	c.CallCount = 0
	c.LastSystem = ""
	c.LastPrompt = ""
	c.AllCalls = nil
}

var _ llm.Client = (*Client)(nil)
