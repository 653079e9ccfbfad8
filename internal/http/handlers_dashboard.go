package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"fintrack/internal/analytics"
	"fintrack/internal/catalog"
	"fintrack/internal/core"
	"fintrack/internal/credit"
)

type cardsResponse struct {
	Grouped []credit.Summary `json:"grouped"`
	Single  []credit.Summary `json:"single"`
}

// handleCards lists card groups against their shared limit, then the
// ungrouped cards against their own.
func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	state := s.store.State()
	grouped, single := credit.Overview(state.Accounts, state.CardGroups, state.Transactions)
	if grouped == nil {
		grouped = []credit.Summary{}
	}
	if single == nil {
		single = []credit.Summary{}
	}
	OK(cardsResponse{Grouped: grouped, Single: single}).Write(w)
}

type balancesResponse struct {
	Accounts []analytics.Balance `json:"accounts"`
	NetWorth decimal.Decimal     `json:"netWorth"`
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	state := s.store.State()
	out := balancesResponse{
		Accounts: make([]analytics.Balance, 0, len(state.Accounts)),
		NetWorth: analytics.NetWorth(state.Accounts, state.Transactions),
	}
	for _, a := range state.Accounts {
		out.Accounts = append(out.Accounts, analytics.AccountBalance(a, state.Transactions))
	}
	OK(out).Write(w)
}

// handleMonthOverview serves the cached income and expense totals of one
// month.
func (s *Server) handleMonthOverview(w http.ResponseWriter, r *http.Request) {
	mp, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		s.fail(w, r, badRequest(err))
		return
	}

	// Revision before state, so a key never holds totals older than it.
	rev := s.store.Revision()
	ov := s.overviewCache.GetOrCompute(overviewKey(rev, mp.Year, mp.Month), func() core.MonthOverview {
		state := s.store.State()
		return analytics.MonthOverview(state.Transactions, catalog.New(state.CustomCategories), mp.Year, mp.Month)
	})
	if ov.ByCategory == nil {
		ov.ByCategory = []core.CategoryAmount{}
	}
	OK(ov).Write(w)
}

func (s *Server) handleTopCategories(w http.ResponseWriter, r *http.Request) {
	ledger, err := s.ledgerForQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := catalog.TopCategories(ledger, parseLimit(r.URL.Query(), 5, 50))
	OK(out).Write(w)
}

func (s *Server) handleSpending(w http.ResponseWriter, r *http.Request) {
	ledger, err := s.ledgerForQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := catalog.New(s.store.State().CustomCategories).Summarize(ledger)
	if out == nil {
		out = []catalog.SpendingSummary{}
	}
	OK(out).Write(w)
}

// ledgerForQuery returns the whole ledger, or one month of it when year or
// month is given.
func (s *Server) ledgerForQuery(r *http.Request) ([]core.Transaction, error) {
	query := r.URL.Query()
	ledger := s.store.State().Transactions
	if !HasMonth(query) {
		return ledger, nil
	}
	mp, err := ParseMonthParams(query, s.now())
	if err != nil {
		return nil, badRequest(err)
	}
	var out []core.Transaction
	for _, tx := range ledger {
		if tx.Date.Year() == mp.Year && tx.Date.Month() == mp.Month {
			out = append(out, tx)
		}
	}
	return out, nil
}
