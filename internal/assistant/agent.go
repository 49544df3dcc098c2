// Package assistant answers chat messages with an LLM that can record
// transactions through a tool.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/finance-assistant/internal/ledger"
	"github.com/carson-networks/finance-assistant/internal/logging"
	"github.com/carson-networks/finance-assistant/internal/service"
)

const (
	recordToolName = "registrar_transaccion"
	sourceName     = "assistant"

	refusedResult  = "No se pudo registrar la transacción por falta de parámetros correctos."
	recordedResult = "Se registró la transacción."
	failedResult   = "No se pudo registrar la transacción por un error interno."
)

var (
	ErrEmptyMessage  = errors.New("assistant: empty message")
	ErrEmptyResponse = errors.New("assistant: model returned no text")
)

// Reply is the assistant's answer for one message.
type Reply struct {
	Response   string `json:"response"`
	Registered bool   `json:"registered"`
}

// Recorder persists transactions on behalf of the assistant.
type Recorder interface {
	CreateTransaction(ctx context.Context, create service.TransactionCreate) (service.Transaction, error)
}

type Agent struct {
	model    Model
	recorder Recorder
	usdToPEN float64
	logger   logrus.FieldLogger
	now      func() time.Time
}

func NewAgent(model Model, recorder Recorder, usdToPEN float64, logger logrus.FieldLogger) *Agent {
	return &Agent{
		model:    model,
		recorder: recorder,
		usdToPEN: usdToPEN,
		logger:   logger.WithField("component", "assistant"),
		now:      time.Now,
	}
}

// Handle answers a single message. Registered is true only when the tool
// actually stored a transaction during this call, whatever the model claims.
func (a *Agent) Handle(ctx context.Context, message string) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, ErrEmptyMessage
	}

	var recorded atomic.Int32
	req := Request{
		System:  SystemPrompt(a.now(), a.usdToPEN),
		Message: message,
		Tools:   []Tool{a.recordTool(&recorded)},
	}

	text, err := a.model.Complete(ctx, req)
	if err != nil {
		if recorded.Load() == 0 {
			return Reply{}, err
		}
		a.logger.WithError(err).WithField("recorded", recorded.Load()).Warn("Agent.Handle.modelErrorAfterRecord")
		return Reply{Response: recordedResult, Registered: true}, nil
	}

	reply := parseReply(text)
	if reply.Registered != (recorded.Load() > 0) {
		a.logger.WithFields(logrus.Fields{
			"claimed":  reply.Registered,
			"recorded": recorded.Load(),
		}).Warn("Agent.Handle.registeredMismatch")
	}
	reply.Registered = recorded.Load() > 0
	if reply.Response == "" {
		if !reply.Registered {
			return Reply{}, ErrEmptyResponse
		}
		reply.Response = recordedResult
	}
	return reply, nil
}

func (a *Agent) recordTool(recorded *atomic.Int32) Tool {
	return Tool{
		Name: recordToolName,
		Description: "Registra una transacción de gasto o ingreso personal. Recibe categoria, descripcion, monto, tipo y fecha. " +
			"Si no se tienen los parámetros correctos se rechaza la transacción.",
		Params: []Param{
			{Name: "categoria", Type: ParamString, Description: "Categoría de la transacción, por ejemplo comida o transporte"},
			{Name: "descripcion", Type: ParamString, Description: "Descripción breve de la transacción"},
			{Name: "monto", Type: ParamNumber, Description: "Monto en soles, sin signo"},
			{Name: "tipo", Type: ParamString, Description: "Tipo de transacción", Enum: []string{"ingreso", "gasto"}},
			{Name: "fecha", Type: ParamString, Description: "Fecha de la transacción en formato YYYY-MM-DD"},
		},
		Call: func(ctx context.Context, args map[string]any) map[string]any {
			if logData := logging.GetLogData(ctx); logData != nil {
				defer logData.AddToExistingTiming("recordToolMs")()
			}

			create, err := toolCreate(args)
			if err != nil {
				a.logger.WithError(err).Info("Agent.recordTool.refused")
				return map[string]any{"resultado": refusedResult}
			}

			created, err := a.recorder.CreateTransaction(ctx, create)
			if errors.Is(err, service.ErrInvalidTransaction) {
				a.logger.WithError(err).Info("Agent.recordTool.refused")
				return map[string]any{"resultado": refusedResult}
			}
			if err != nil {
				a.logger.WithError(err).Error("Agent.recordTool")
				return map[string]any{"resultado": failedResult}
			}

			recorded.Add(1)
			return map[string]any{"resultado": recordedResult, "id": created.ID.String()}
		},
	}
}

func toolCreate(args map[string]any) (service.TransactionCreate, error) {
	category := stringArg(args, "categoria")
	description := stringArg(args, "descripcion")
	kindLabel := stringArg(args, "tipo")
	date := stringArg(args, "fecha")
	if category == "" || description == "" || kindLabel == "" || date == "" {
		return service.TransactionCreate{}, errors.New("missing parameters")
	}

	kind, err := ledger.ParseKind(kindLabel)
	if err != nil {
		return service.TransactionCreate{}, err
	}
	if _, err := ledger.ParseDate(date); err != nil {
		return service.TransactionCreate{}, err
	}
	amount, err := amountArg(args["monto"])
	if err != nil {
		return service.TransactionCreate{}, err
	}

	return service.TransactionCreate{
		Kind:        kind,
		Amount:      amount,
		Description: description,
		Category:    category,
		Date:        date[:len(ledger.DateLayout)],
		Source:      sourceName,
	}, nil
}

func stringArg(args map[string]any, name string) string {
	value, _ := args[name].(string)
	return strings.TrimSpace(value)
}

func amountArg(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case string:
		v = strings.TrimSpace(v)
		v = strings.TrimPrefix(v, "S/.")
		v = strings.TrimPrefix(v, "S/")
		return decimal.NewFromString(strings.TrimSpace(v))
	default:
		return decimal.Decimal{}, fmt.Errorf("monto: unsupported value %v", value)
	}
}

// parseReply reads the model's JSON answer. Anything that is not the expected
// object is used verbatim as the response text.
func parseReply(text string) Reply {
	var reply Reply
	if err := json.Unmarshal([]byte(cleanModelJSON(text)), &reply); err != nil || reply.Response == "" {
		return Reply{Response: strings.TrimSpace(text)}
	}
	return reply
}

// cleanModelJSON strips Markdown fences and any text around the outermost object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// drop the opening ``` or ```json line
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
