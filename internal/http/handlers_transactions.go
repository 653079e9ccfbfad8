package http

import (
	"errors"
	"net/http"
	"strings"

	"fintrack/internal/catalog"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/store"
)

// handleListTransactions filters by accountId, type and year/month when
// given, keeping stored order.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	accountID := strings.TrimSpace(query.Get("accountId"))
	txType := core.ParseTxType(query.Get("type"))

	var month *MonthParams
	if HasMonth(query) {
		mp, err := ParseMonthParams(query, s.now())
		if err != nil {
			s.fail(w, r, badRequest(err))
			return
		}
		month = &mp
	}

	out := []core.Transaction{}
	for _, tx := range s.store.State().Transactions {
		if accountID != "" && tx.AccountID != accountID {
			continue
		}
		if txType != "" && !tx.Type.Is(txType) {
			continue
		}
		if month != nil && (tx.Date.Year() != month.Year || tx.Date.Month() != month.Month) {
			continue
		}
		out = append(out, tx)
	}
	OK(out).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, ok := s.store.State().TransactionByID(r.PathValue("id"))
	if !ok {
		s.fail(w, r, notFound("transaction %s not found", r.PathValue("id")))
		return
	}
	OK(tx).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decode(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx := req.transaction(s.newID(), s.today())
	if err := checkTransaction(s.store.State(), tx); err != nil {
		s.fail(w, r, err)
		return
	}
	s.store.Dispatch(store.AddTransaction{Transaction: tx})
	s.structured(r.Context()).LogTransactionCreated(r.Context(), tx.ID, tx.AccountID, string(tx.Type), tx.Amount.String(), string(tx.Category))
	Created(tx).Write(w)
}

// handleUpdateTransaction replaces every editable field. The original SMS
// text and card digits of the stored entry are kept.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decode(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	state := s.store.State()
	id := r.PathValue("id")
	existing, ok := state.TransactionByID(id)
	if !ok {
		s.fail(w, r, notFound("transaction %s not found", id))
		return
	}
	tx := req.transaction(id, existing.Date)
	tx.OriginalSMS = existing.OriginalSMS
	tx.Last4Digits = existing.Last4Digits
	if err := checkTransaction(state, tx); err != nil {
		s.fail(w, r, err)
		return
	}
	s.store.Dispatch(store.UpdateTransaction{Transaction: tx})
	OK(tx).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	id := r.PathValue("id")
	if _, ok := s.store.State().TransactionByID(id); !ok {
		s.fail(w, r, notFound("transaction %s not found", id))
		return
	}
	s.store.Dispatch(store.DeleteTransaction{ID: id})
	s.logInfo(r.Context(), "Transaction deleted", log.FieldTransactionID, id)
	NoContent().Write(w)
}

// checkTransaction validates tx and its account and category references.
// Both references are optional.
func checkTransaction(state store.State, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return unprocessable(err)
	}
	if tx.AccountID != "" {
		if _, ok := state.AccountByID(tx.AccountID); !ok {
			return unprocessable(errors.New("unknown account " + tx.AccountID))
		}
	}
	if tx.Category != "" && !catalog.New(state.CustomCategories).IsValid(tx.Category) {
		return unprocessable(errors.New("unknown category " + string(tx.Category)))
	}
	return nil
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	OK(s.store.State().PendingTransactions).Write(w)
}

// handleConfirmPending accepts an optional body of edits.
func (s *Server) handleConfirmPending(w http.ResponseWriter, r *http.Request) {
	var edits services.Edits
	if err := decode(r, &edits, true); err != nil {
		s.fail(w, r, err)
		return
	}

	state := s.store.State()
	if edits.AccountID != nil && *edits.AccountID != "" {
		if _, ok := state.AccountByID(*edits.AccountID); !ok {
			s.fail(w, r, unprocessable(errors.New("unknown account "+*edits.AccountID)))
			return
		}
	}
	if edits.Category != nil && *edits.Category != "" && !catalog.New(state.CustomCategories).IsValid(*edits.Category) {
		s.fail(w, r, unprocessable(errors.New("unknown category "+string(*edits.Category))))
		return
	}

	tx, err := s.ingestor.Confirm(r.Context(), r.PathValue("id"), edits)
	if err != nil {
		if !errors.Is(err, services.ErrPendingNotFound) {
			err = unprocessable(err)
		}
		s.fail(w, r, err)
		return
	}
	OK(tx).Write(w)
}

func (s *Server) handleDiscardPending(w http.ResponseWriter, r *http.Request) {
	if err := s.ingestor.Discard(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	NoContent().Write(w)
}
