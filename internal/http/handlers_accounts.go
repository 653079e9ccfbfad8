package http

import (
	"errors"
	"net/http"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

// accountView is an account with its current balance.
type accountView struct {
	core.Account
	Balance analytics.Balance `json:"balance"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	state := s.store.State()
	out := make([]accountView, 0, len(state.Accounts))
	for _, a := range state.Accounts {
		out = append(out, accountView{Account: a, Balance: analytics.AccountBalance(a, state.Transactions)})
	}
	OK(out).Write(w)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	state := s.store.State()
	a, ok := state.AccountByID(r.PathValue("id"))
	if !ok {
		s.fail(w, r, notFound("account %s not found", r.PathValue("id")))
		return
	}
	OK(accountView{Account: a, Balance: analytics.AccountBalance(a, state.Transactions)}).Write(w)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decode(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	account := req.account(s.newID())
	if err := s.checkAccount(s.store.State(), account); err != nil {
		s.fail(w, r, err)
		return
	}
	s.store.Dispatch(store.AddAccount{Account: account})
	s.logInfo(r.Context(), "Account created",
		log.FieldAccountID, account.ID, "account_type", string(account.Type))
	Created(account).Write(w)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decode(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	state := s.store.State()
	id := r.PathValue("id")
	if _, ok := state.AccountByID(id); !ok {
		s.fail(w, r, notFound("account %s not found", id))
		return
	}
	account := req.account(id)
	if err := s.checkAccount(state, account); err != nil {
		s.fail(w, r, err)
		return
	}
	s.store.Dispatch(store.UpdateAccount{Account: account})
	OK(account).Write(w)
}

// handleDeleteAccount removes the account together with its transactions.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	id := r.PathValue("id")
	if _, ok := s.store.State().AccountByID(id); !ok {
		s.fail(w, r, notFound("account %s not found", id))
		return
	}
	s.store.Dispatch(store.DeleteAccount{ID: id})
	s.logInfo(r.Context(), "Account deleted", log.FieldAccountID, id)
	NoContent().Write(w)
}

func (s *Server) handleAccountTransactions(w http.ResponseWriter, r *http.Request) {
	state := s.store.State()
	id := r.PathValue("id")
	if _, ok := state.AccountByID(id); !ok {
		s.fail(w, r, notFound("account %s not found", id))
		return
	}
	out := state.TransactionsFor(id)
	if out == nil {
		out = []core.Transaction{}
	}
	OK(out).Write(w)
}

// checkAccount validates a and its card group reference. Only credit cards
// may join a group.
func (s *Server) checkAccount(state store.State, a core.Account) error {
	if err := a.Validate(); err != nil {
		return unprocessable(err)
	}
	if a.CardGroup == "" {
		return nil
	}
	if !a.IsCredit() {
		return unprocessable(errors.New("only credit cards can belong to a card group"))
	}
	if _, ok := state.CardGroupByID(a.CardGroup); !ok {
		return unprocessable(errors.New("unknown card group " + a.CardGroup))
	}
	return nil
}

func (s *Server) handleListCardGroups(w http.ResponseWriter, r *http.Request) {
	OK(s.store.State().CardGroups).Write(w)
}

func (s *Server) handleCreateCardGroup(w http.ResponseWriter, r *http.Request) {
	var req cardGroupRequest
	if err := decode(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	group := req.group(s.newID())
	if err := group.Validate(); err != nil {
		s.fail(w, r, unprocessable(err))
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.store.Dispatch(store.AddCardGroup{Group: group})
	Created(group).Write(w)
}

func (s *Server) handleUpdateCardGroup(w http.ResponseWriter, r *http.Request) {
	var req cardGroupRequest
	if err := decode(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	id := r.PathValue("id")
	if _, ok := s.store.State().CardGroupByID(id); !ok {
		s.fail(w, r, notFound("card group %s not found", id))
		return
	}
	group := req.group(id)
	if err := group.Validate(); err != nil {
		s.fail(w, r, unprocessable(err))
		return
	}
	s.store.Dispatch(store.UpdateCardGroup{Group: group})
	OK(group).Write(w)
}

// handleDeleteCardGroup ungroups the member cards and keeps them.
func (s *Server) handleDeleteCardGroup(w http.ResponseWriter, r *http.Request) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	id := r.PathValue("id")
	if _, ok := s.store.State().CardGroupByID(id); !ok {
		s.fail(w, r, notFound("card group %s not found", id))
		return
	}
	s.store.Dispatch(store.DeleteCardGroup{ID: id})
	NoContent().Write(w)
}
