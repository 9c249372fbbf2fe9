package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/polyedge/internal/domain"
	"github.com/alejandrodnm/polyedge/internal/ports"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify imprime el informe del ciclo en el modo configurado.
func (c *Console) Notify(_ context.Context, report ports.CycleReport) error {
	accepted := countAccepted(report.Recommendations)
	if accepted == 0 && len(report.Arbitrages) == 0 && len(report.Exits) == 0 {
		fmt.Fprintf(c.out, "[%s] no actionable signals (%d candidates evaluated)\n",
			time.Now().Format("15:04:05"), len(report.Recommendations))
		return nil
	}

	if c.table {
		c.printFull(report)
	} else {
		c.printCompact(report)
	}
	return nil
}

// printCompact imprime lo esencial en 1-2 líneas.
func (c *Console) printCompact(report ports.CycleReport) {
	now := time.Now().Format("15:04:05")
	accepted := countAccepted(report.Recommendations)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d evaluated → accept:%d arb:%d exit:%d",
		now, len(report.Recommendations), accepted,
		len(report.Arbitrages), len(report.Exits))

	shown := 0
	for _, rec := range report.Recommendations {
		if !rec.Accepted {
			continue
		}
		if shown >= 4 {
			break
		}
		fmt.Fprintf(&sb, " | %s %s e%+.3f sz%.3f",
			rec.Signal.Action, compactName(rec.Signal.Question, 25),
			rec.Signal.Edge, rec.FinalSize)
		shown++
	}

	for i, exit := range report.Exits {
		if i >= 2 {
			break
		}
		fmt.Fprintf(&sb, " | !! %s %s %.1f%%",
			exit.Primary.Reason, compactName(exit.MarketID, 14), exit.PnLPercent*100)
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime las tablas completas del ciclo.
func (c *Console) printFull(report ports.CycleReport) {
	now := time.Now().Format("15:04:05")
	accepted := countAccepted(report.Recommendations)

	fmt.Fprintf(c.out, "\n[%s] cycle report — evaluated:%d accepted:%d arbitrages:%d exits:%d\n",
		now, len(report.Recommendations), accepted,
		len(report.Arbitrages), len(report.Exits))

	if accepted > 0 {
		c.printRecommendations(report.Recommendations)
	}
	if len(report.Arbitrages) > 0 {
		c.printArbitrages(report.Arbitrages)
	}
	if len(report.Exits) > 0 {
		c.printExits(report.Exits)
	}
}

// printRecommendations imprime la tabla de entradas aceptadas.
func (c *Console) printRecommendations(recs []domain.Recommendation) {
	fmt.Fprintln(c.out, "\n  ENTRIES")
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Market", "Cat", "Action", "Price", "Edge", "Conf", "Cal", "Timing", "Size")

	i := 0
	for _, rec := range recs {
		if !rec.Accepted {
			continue
		}
		i++
		table.Append(
			fmt.Sprintf("%d", i),
			truncate(rec.Signal.Question, 38),
			string(rec.Signal.Category),
			string(rec.Signal.Action),
			fmt.Sprintf("%.3f", rec.Signal.Price),
			fmt.Sprintf("%+.3f", rec.Signal.Edge),
			fmt.Sprintf("%.0f", rec.Signal.Confidence),
			string(rec.Calibration.Status),
			string(rec.Time.Tier),
			fmt.Sprintf("%.4f", rec.FinalSize),
		)
	}
	table.Render()

	fmt.Fprintln(c.out, "  Edge = model - price tras calibración | Size = fracción del bankroll")
}

// printArbitrages imprime las violaciones de precios entre pares relacionados.
func (c *Console) printArbitrages(arbs []domain.ArbOpportunity) {
	fmt.Fprintln(c.out, "\n  ARBITRAGE")
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Type", "A", "B", "PxA", "PxB", "Dev", "Direction", "Profit", "Conf")

	for i, arb := range arbs {
		table.Append(
			fmt.Sprintf("%d", i+1),
			string(arb.Relationship.Type),
			truncate(arb.Relationship.MarketA, 14),
			truncate(arb.Relationship.MarketB, 14),
			fmt.Sprintf("%.3f", arb.PriceA),
			fmt.Sprintf("%.3f", arb.PriceB),
			fmt.Sprintf("%.3f", arb.Deviation),
			string(arb.Direction),
			fmt.Sprintf("%.3f", arb.ExpectedProfit),
			fmt.Sprintf("%.0f%%", arb.Confidence),
		)
	}
	table.Render()
}

// printExits imprime las recomendaciones de salida, ya ordenadas por prioridad.
func (c *Console) printExits(exits []domain.ExitRecommendation) {
	fmt.Fprintln(c.out, "\n  EXITS")
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Market", "Reason", "Priority", "Urgency", "PnL%", "Also")

	for i, exit := range exits {
		also := ""
		if n := len(exit.Triggered) - 1; n > 0 {
			also = fmt.Sprintf("+%d", n)
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			truncate(exit.MarketID, 14),
			string(exit.Primary.Reason),
			exit.Primary.Priority.String(),
			string(exit.Urgency),
			fmt.Sprintf("%+.1f%%", exit.PnLPercent*100),
			also,
		)
	}
	table.Render()
}

// PrintRiskReport imprime las métricas de riesgo sobre una serie de retornos
// por señal resuelta.
func (c *Console) PrintRiskReport(returns []float64, params domain.MetricsParams) {
	if len(returns) < 2 {
		fmt.Fprintln(c.out, "\n  Not enough resolved signals for a risk report (need >= 2).")
		return
	}

	equity := equityFromReturns(returns)
	dd := domain.MaxDrawdown(equity)

	fmt.Fprintf(c.out, "\n=== RISK REPORT (%d resolved signals) ===\n", len(returns))
	fmt.Fprintf(c.out, "  Sharpe:        %.2f\n", domain.Sharpe(returns, params))
	fmt.Fprintf(c.out, "  Sortino:       %.2f\n", domain.Sortino(returns, params))
	fmt.Fprintf(c.out, "  Max drawdown:  %.1f%% (peak #%d → trough #%d)\n",
		dd.MaxDrawdown*100, dd.PeakIndex, dd.TroughIndex)
	if dd.RecoveryPeriods > 0 {
		fmt.Fprintf(c.out, "  Recovery:      %d signals\n", dd.RecoveryPeriods)
	}
	fmt.Fprintf(c.out, "  VaR 95%%:       %.1f%%\n", domain.VaR(returns, 0.95, params)*100)
	fmt.Fprintf(c.out, "  CVaR 95%%:      %.1f%%\n", domain.CVaR(returns, 0.95, params)*100)
	fmt.Fprintf(c.out, "  Calmar:        %.2f\n", domain.Calmar(equity, params))
	fmt.Fprintln(c.out)
}

// --- helpers ---

func countAccepted(recs []domain.Recommendation) int {
	n := 0
	for _, r := range recs {
		if r.Accepted {
			n++
		}
	}
	return n
}

// equityFromReturns construye la curva de equity partiendo de 1.0.
func equityFromReturns(returns []float64) []float64 {
	equity := make([]float64, len(returns)+1)
	equity[0] = 1.0
	for i, r := range returns {
		equity[i+1] = equity[i] * (1 + r)
	}
	return equity
}

// truncate y compactName cortan por runas: las preguntas de mercado traen
// texto multibyte ($, €, ñ, emoji) y un corte por bytes lo rompería.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func compactName(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	cut := string(r[:maxLen])
	// El espacio es ASCII: cortar en su índice de byte no parte ninguna runa.
	if idx := strings.LastIndex(cut, " "); idx > len(cut)/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
