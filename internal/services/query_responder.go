package services

import (
	"context"
	"fmt"
	"strings"

	"lasyfinance/internal/clock"
	"lasyfinance/internal/money"
)

// QueryKind is the question a chat message asks, if any.
type QueryKind int

const (
	QueryNone QueryKind = iota
	QueryBalance
	QueryMonthSummary
)

// HelpReply is the greeting sent when a message is neither a transaction nor a known question.
const HelpReply = `Olá! Sou seu assistente financeiro. Posso registrar transações como "Gastei R$ 50 no mercado" ou responder perguntas sobre seu saldo e relatórios.`

var (
	balanceKeywords = []string{"saldo", "quanto tenho"}
	summaryKeywords = []string{"relatório", "relatorio", "resumo"}
)

type queryResponder struct {
	reports ReportServicer
	clock   clock.Clock
}

// NewQueryResponder creates a QueryResponder that reads figures through reports.
func NewQueryResponder(reports ReportServicer, clk clock.Clock) QueryResponder {
	return &queryResponder{reports: reports, clock: clk}
}

// Match classifies text by case-insensitive keyword. Balance wins over summary.
func (q *queryResponder) Match(text string) QueryKind {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, balanceKeywords):
		return QueryBalance
	case containsAny(lower, summaryKeywords):
		return QueryMonthSummary
	default:
		return QueryNone
	}
}

// Respond answers text for userID. It only reads.
func (q *queryResponder) Respond(ctx context.Context, userID, text string) (string, error) {
	switch q.Match(text) {
	case QueryBalance:
		totals, err := q.reports.GetTotals(userID, nil, nil)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("💰 Seu saldo atual é %s (Receitas: %s, Despesas: %s)",
			money.Format(totals.Balance), money.Format(totals.Income), money.Format(totals.Expense)), nil

	case QueryMonthSummary:
		from, to := clock.MonthRange(q.clock)
		totals, err := q.reports.GetTotals(userID, &from, &to)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("📊 Resumo do mês: Receitas %s, Despesas %s, Saldo %s",
			money.Format(totals.Income), money.Format(totals.Expense), money.Format(totals.Balance)), nil

	default:
		return HelpReply, nil
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
