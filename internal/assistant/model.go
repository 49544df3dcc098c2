package assistant

import (
	"context"
	"errors"
)

// ErrTooManyToolRounds is returned when the model keeps calling tools
// without ever producing a final answer.
var ErrTooManyToolRounds = errors.New("assistant: too many tool rounds")

type ParamType string

const (
	ParamString ParamType = "string"
	ParamNumber ParamType = "number"
)

type Param struct {
	Name        string
	Description string
	Type        ParamType
	Enum        []string
}

// Tool is a function the model may call. Every parameter is required.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Call        func(ctx context.Context, args map[string]any) map[string]any
}

type Request struct {
	System  string
	Message string
	Tools   []Tool
}

// Model runs one conversation turn, calling tools as the model asks, and
// returns the model's final text.
type Model interface {
	Complete(ctx context.Context, req Request) (string, error)
}
