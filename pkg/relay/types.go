package relay

import (
	"gaia-relay/llamagate/pkg/config"
	"gaia-relay/llamagate/pkg/proxy/types"
)

// ChatRequest is the inbound request body.
type ChatRequest = types.ChatRequest

// Message is a single conversation turn.
type Message = types.Message

// UpstreamRequest is the body POSTed to the upstream service. Field order
// fixes the key order on the wire: messages, temperature, max_tokens.
type UpstreamRequest struct {
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// Params are the generation controls injected into every forwarded request.
type Params struct {
	Temperature float64
	MaxTokens   int
}

// DefaultParams returns temperature 0.7 and a budget of 1000 tokens.
func DefaultParams() Params {
	return Params{
		Temperature: config.DefaultTemperature,
		MaxTokens:   config.DefaultMaxTokens,
	}
}

// Settings is the part of the forwarder that can change at runtime.
type Settings struct {
	// URL is the upstream chat-completions endpoint.
	URL string

	// Params are injected into every request.
	Params Params

	// PropagateStatus relays the upstream status code instead of 200.
	PropagateStatus bool
}

// SettingsFrom extracts forwarder settings from a loaded configuration.
func SettingsFrom(cfg *config.Config) Settings {
	return Settings{
		URL: cfg.Upstream.URL,
		Params: Params{
			Temperature: cfg.Generation.Temperature,
			MaxTokens:   cfg.Generation.MaxTokens,
		},
		PropagateStatus: cfg.Upstream.PropagateStatus,
	}
}

// NewUpstreamRequest builds the outbound body. messages is forwarded as is:
// same order, same elements, never nil.
func NewUpstreamRequest(req *ChatRequest, p Params) *UpstreamRequest {
	messages := req.Messages
	if messages == nil {
		messages = []Message{}
	}
	return &UpstreamRequest{
		Messages:    messages,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
	}
}
