// Package present turns ledger data and errors into the es-PE strings the
// CLI prints.
package present

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carson-networks/finance-assistant/internal/aggregate"
	"github.com/carson-networks/finance-assistant/internal/apperr"
	"github.com/carson-networks/finance-assistant/internal/chat"
	"github.com/carson-networks/finance-assistant/internal/ledger"
)

const currencySymbol = "S/."

var months = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

var weekdays = [...]string{"dom", "lun", "mar", "mié", "jue", "vie", "sáb"}

func KindLabel(k ledger.Kind) string {
	if k == ledger.KindIncome {
		return "Ingreso"
	}
	return "Gasto"
}

// Amount formats a value as soles with two decimals, e.g. "S/.12.50".
func Amount(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + currencySymbol + d.Neg().StringFixed(2)
	}
	return currencySymbol + d.StringFixed(2)
}

// SignedAmount prefixes income with "+" and expense with "-".
func SignedAmount(tx ledger.Transaction) string {
	if tx.Kind == ledger.KindIncome {
		return "+" + Amount(tx.Amount)
	}
	return "-" + Amount(tx.Amount)
}

// LongDate renders an ISO date as "3 de enero de 2024". Unparseable input is returned unchanged.
func LongDate(iso string) string {
	day, err := ledger.ParseDate(iso)
	if err != nil {
		return iso
	}
	return fmt.Sprintf("%d de %s de %d", day.Day(), months[day.Month()-1], day.Year())
}

// ShortDay renders a YYYY-MM-DD day as "mié 03".
func ShortDay(iso string) string {
	day, err := time.Parse(ledger.DateLayout, iso)
	if err != nil {
		return iso
	}
	return fmt.Sprintf("%s %02d", weekdays[day.Weekday()], day.Day())
}

// ErrorMessage is the user-visible text for an error from any client component.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	switch apperr.KindOf(err) {
	case apperr.KindNetwork:
		return "No se pudo conectar con el servidor. Inténtalo de nuevo."
	case apperr.KindValidation:
		return "Los datos de la transacción no son válidos."
	case apperr.KindConfiguration:
		return "Falta configurar la clave o la región del servicio de voz."
	case apperr.KindTranscription:
		return "Se interrumpió el reconocimiento de voz."
	case apperr.KindBusy:
		return "El asistente todavía está respondiendo."
	default:
		return "Ocurrió un error inesperado."
	}
}

// History writes the balance summary followed by one line per transaction.
func History(w io.Writer, transactions []ledger.Transaction) {
	fmt.Fprintf(w, "Balance:  %s\n", Amount(aggregate.Balance(transactions)))
	fmt.Fprintf(w, "Ingresos: %s\n", Amount(aggregate.TotalByKind(transactions, ledger.KindIncome)))
	fmt.Fprintf(w, "Gastos:   %s\n", Amount(aggregate.TotalByKind(transactions, ledger.KindExpense)))
	fmt.Fprintln(w)

	if len(transactions) == 0 {
		fmt.Fprintln(w, "No hay transacciones registradas.")
		return
	}
	for _, tx := range transactions {
		fmt.Fprintf(w, "%-12s %-8s %-14s %-24s %s\n",
			SignedAmount(tx), KindLabel(tx.Kind), tx.Category, tx.Description, LongDate(tx.Date))
	}
}

// Dashboard writes the totals, the daily series and the expense breakdown.
func Dashboard(w io.Writer, snap aggregate.Snapshot) {
	fmt.Fprintf(w, "Ingresos totales: %s\n", Amount(snap.TotalIncome))
	fmt.Fprintf(w, "Gastos totales:   %s\n", Amount(snap.TotalExpense))
	fmt.Fprintf(w, "Balance:          %s\n", Amount(snap.Balance))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Últimos 7 días")
	fmt.Fprintf(w, "%-8s %12s %12s\n", "Día", "Ingresos", "Gastos")
	for i := range snap.DailyIncome {
		var expense decimal.Decimal
		if i < len(snap.DailyExpense) {
			expense = snap.DailyExpense[i].Amount
		}
		fmt.Fprintf(w, "%-8s %12s %12s\n", ShortDay(snap.DailyIncome[i].Day), Amount(snap.DailyIncome[i].Amount), Amount(expense))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Gastos por categoría")
	if len(snap.CategoryExpense) == 0 {
		fmt.Fprintln(w, "  (sin gastos)")
		return
	}
	for _, c := range snap.CategoryExpense {
		fmt.Fprintf(w, "  %-16s %s\n", c.Category, Amount(c.Amount))
	}
}

// Conversation writes the chat history, the live partial transcript and any error.
func Conversation(w io.Writer, view chat.View) {
	for _, m := range view.Messages {
		speaker := "Tú"
		if m.Speaker == chat.SpeakerAssistant {
			speaker = "Asistente"
		}
		fmt.Fprintf(w, "[%s] %s: %s\n", m.ProducedAt.Format("15:04"), speaker, m.Text)
	}
	if partial := strings.TrimSpace(view.Partial); partial != "" {
		fmt.Fprintf(w, "… %s\n", partial)
	}
	if view.Processing {
		fmt.Fprintln(w, "Procesando…")
	}
	if view.Err != nil {
		fmt.Fprintf(w, "Error: %s\n", ErrorMessage(view.Err))
	}
}
