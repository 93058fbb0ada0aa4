// Package llm is the provider-neutral contract for the generative model backends.
package llm

import (
	"context"
	"errors"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type Turn struct {
	Role Role
	Text string
}

type Request struct {
	System      string
	Turns       []Turn
	Temperature float64
	// JSON asks the backend for an application/json response body.
	JSON bool
}

type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
	// Provider names the backend for logs and metrics.
	Provider() string
}

var (
	ErrNotConfigured = errors.New("generative model not configured")
	ErrEmptyResponse = errors.New("model returned no text")
)
