// Package llm provides completion providers and the ordered completion
// router used by the planner, analyst and simulator.
package llm

import (
	"context"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a provider-neutral completion request. An empty Model means
// the provider's configured default.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
}

// System returns the concatenated system messages.
func (r Request) System() string {
	var out string
	for _, m := range r.Messages {
		if m.Role == RoleSystem {
			if out != "" {
				out += "\n\n"
			}
			out += m.Content
		}
	}
	return out
}

// NewRequest builds a system+user request.
func NewRequest(system, user string, temperature float64) Request {
	var msgs []Message
	if system != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: system})
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: user})
	return Request{Messages: msgs, Temperature: temperature}
}

// Client is a single completion provider.
type Client interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}
