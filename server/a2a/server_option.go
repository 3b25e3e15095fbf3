package a2a

import (
	a2a "trpc.group/trpc-go/trpc-a2a-go/server"
)

type options struct {
	handler      Handler
	host         string
	url          string
	name         string
	description  string
	version      string
	agentCard    *a2a.AgentCard
	extraOptions []a2a.Option
}

// Option is a function that configures the server.
type Option func(*options)

func newOptions(opts ...Option) *options {
	o := &options{
		name:        defaultAgentName,
		description: defaultAgentDescription,
		version:     defaultAgentVersion,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithHandler sets the request handler. Required.
func WithHandler(handler Handler) Option {
	return func(opts *options) {
		opts.handler = handler
	}
}

// WithHost sets the advertised host:port. Required.
func WithHost(host string) Option {
	return func(opts *options) {
		opts.host = host
	}
}

// WithURL sets the externally reachable base URL advertised on the
// card. Defaults to the host address.
func WithURL(url string) Option {
	return func(opts *options) {
		opts.url = url
	}
}

// WithName overrides the agent name on the card.
func WithName(name string) Option {
	return func(opts *options) {
		opts.name = name
	}
}

// WithDescription overrides the agent description on the card.
func WithDescription(description string) Option {
	return func(opts *options) {
		opts.description = description
	}
}

// WithVersion overrides the agent version on the card.
func WithVersion(version string) Option {
	return func(opts *options) {
		opts.version = version
	}
}

// WithAgentCard replaces the generated agent card entirely.
func WithAgentCard(agentCard a2a.AgentCard) Option {
	return func(opts *options) {
		opts.agentCard = &agentCard
	}
}

// WithExtraA2AOptions passes options through to the underlying server.
func WithExtraA2AOptions(extra ...a2a.Option) Option {
	return func(opts *options) {
		opts.extraOptions = append(opts.extraOptions, extra...)
	}
}
