package assistant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGemini answers the first generateContent call with a function call and
// every later one with plain text.
type fakeGemini struct {
	mu     sync.Mutex
	bodies []string
}

func (f *fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, ":generateContent") {
		http.NotFound(w, r)
		return
	}
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.bodies = append(f.bodies, string(body))
	first := len(f.bodies) == 1
	f.mu.Unlock()

	var part map[string]any
	if first {
		part = map[string]any{"functionCall": map[string]any{
			"name": "sumar",
			"args": map[string]any{"a": 2, "b": 3},
		}}
	} else {
		part = map[string]any{"text": `{"response":"5","registered":false}`}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{"role": "model", "parts": []any{part}},
		}},
	})
}

func TestGeminiModel_ToolRound(t *testing.T) {
	fake := &fakeGemini{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	model, err := NewGeminiModel(context.Background(), GeminiConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	var got map[string]any
	text, err := model.Complete(context.Background(), Request{
		System:  "suma",
		Message: "2 + 3",
		Tools: []Tool{{
			Name:   "sumar",
			Params: []Param{{Name: "a", Type: ParamNumber}, {Name: "b", Type: ParamNumber}},
			Call: func(ctx context.Context, args map[string]any) map[string]any {
				got = args
				return map[string]any{"resultado": 5}
			},
		}},
	})

	require.NoError(t, err)
	assert.Equal(t, `{"response":"5","registered":false}`, text)
	assert.EqualValues(t, 2, got["a"])
	require.Len(t, fake.bodies, 2)
	assert.Contains(t, fake.bodies[0], "sumar")
	assert.Contains(t, fake.bodies[1], "functionResponse")
}

func TestGeminiModel_TooManyRounds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"functionCall":{"name":"sumar","args":{}}}]}}]}`)
	}))
	defer srv.Close()

	model, err := NewGeminiModel(context.Background(), GeminiConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	calls := 0
	_, err = model.Complete(context.Background(), Request{
		Message: "loop",
		Tools: []Tool{{Name: "sumar", Call: func(context.Context, map[string]any) map[string]any {
			calls++
			return map[string]any{}
		}}},
	})

	assert.ErrorIs(t, err, ErrTooManyToolRounds)
	assert.Equal(t, maxToolRounds, calls)
}

func TestDeclaration(t *testing.T) {
	decl := declaration(Tool{
		Name: "registrar",
		Params: []Param{
			{Name: "monto", Type: ParamNumber},
			{Name: "tipo", Type: ParamString, Enum: []string{"ingreso", "gasto"}},
		},
	})

	assert.Equal(t, "registrar", decl.Name)
	assert.Equal(t, []string{"monto", "tipo"}, decl.Parameters.Required)
	assert.Equal(t, "NUMBER", string(decl.Parameters.Properties["monto"].Type))
	assert.Equal(t, []string{"ingreso", "gasto"}, decl.Parameters.Properties["tipo"].Enum)
}
