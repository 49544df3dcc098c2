package assistant

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const (
	DefaultModelName = "gemini-2.5-flash"
	maxToolRounds    = 4
)

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string // empty for the public endpoint
}

type GeminiModel struct {
	client *genai.Client
	model  string
}

func NewGeminiModel(ctx context.Context, cfg GeminiConfig) (*GeminiModel, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiModel{client: client, model: model}, nil
}

func (m *GeminiModel) Complete(ctx context.Context, req Request) (string, error) {
	byName := make(map[string]Tool, len(req.Tools))
	declarations := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
	for _, tool := range req.Tools {
		byName[tool.Name] = tool
		declarations = append(declarations, declaration(tool))
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
	}
	if len(declarations) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: declarations}}
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Message, genai.RoleUser)}
	for round := 0; round < maxToolRounds; round++ {
		resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, config)
		if err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			return resp.Text(), nil
		}

		if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
			contents = append(contents, resp.Candidates[0].Content)
		}
		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			var result map[string]any
			if tool, ok := byName[call.Name]; ok {
				result = tool.Call(ctx, call.Args)
			} else {
				result = map[string]any{"error": "unknown function " + call.Name}
			}
			parts = append(parts, genai.NewPartFromFunctionResponse(call.Name, result))
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
	}
	return "", ErrTooManyToolRounds
}

func declaration(tool Tool) *genai.FunctionDeclaration {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(tool.Params)),
	}
	for _, param := range tool.Params {
		prop := &genai.Schema{
			Type:        genai.TypeString,
			Description: param.Description,
			Enum:        param.Enum,
		}
		if param.Type == ParamNumber {
			prop.Type = genai.TypeNumber
		}
		schema.Properties[param.Name] = prop
		schema.Required = append(schema.Required, param.Name)
	}
	return &genai.FunctionDeclaration{
		Name:        tool.Name,
		Description: tool.Description,
		Parameters:  schema,
	}
}
