package http

import (
	"errors"
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/statement"
	"fintrack/internal/store"
)

// handleIngestSMS feeds one message through the same pipeline as the
// queue consumer. Accepted messages answer 201, every other outcome 200.
func (s *Server) handleIngestSMS(w http.ResponseWriter, r *http.Request) {
	var req smsRequest
	if err := decode(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		s.fail(w, r, unprocessable(errors.New("sms body cannot be empty")))
		return
	}
	if req.ReceivedAt.IsZero() {
		req.ReceivedAt = s.now()
	}

	res := s.ingestor.Ingest(r.Context(), services.SMS{
		Sender:     strings.TrimSpace(req.Sender),
		Body:       req.Body,
		ReceivedAt: req.ReceivedAt,
	})
	if res.Outcome == services.OutcomeAccepted {
		Created(res).Write(w)
		return
	}
	OK(res).Write(w)
}

func (s *Server) handleParseStatement(w http.ResponseWriter, r *http.Request) {
	var req statementRequest
	if err := decode(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	entries := statement.Parse(req.Text, s.now())
	if entries == nil {
		entries = []statement.Entry{}
	}
	OK(entries).Write(w)
}

type importResponse struct {
	Imported []core.Transaction `json:"imported"`
	Skipped  int                `json:"skipped"`
}

// handleImportStatement parses statement text and adds every entry to one
// account in a single bulk action. Entries matching a transaction already
// in the store are skipped, so importing the same statement twice is a no-op.
func (s *Server) handleImportStatement(w http.ResponseWriter, r *http.Request) {
	var req statementRequest
	if err := decode(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	state := s.store.State()
	accountID := strings.TrimSpace(req.AccountID)
	if _, ok := state.AccountByID(accountID); !ok {
		s.fail(w, r, unprocessable(errors.New("unknown account "+accountID)))
		return
	}

	out := importResponse{Imported: []core.Transaction{}}
	for _, e := range statement.Parse(req.Text, s.now()) {
		tx := core.Transaction{
			ID:           s.newID(),
			AccountID:    accountID,
			Amount:       e.Amount,
			Type:         e.Type,
			Category:     req.Category,
			Date:         e.Date,
			MerchantName: e.Description,
		}
		if err := checkTransaction(state, tx); err != nil {
			s.fail(w, r, err)
			return
		}
		if services.IsDuplicate(state, tx) {
			out.Skipped++
			continue
		}
		out.Imported = append(out.Imported, tx)
	}

	if len(out.Imported) > 0 {
		s.store.Dispatch(store.AddTransactionsBulk{Transactions: out.Imported})
	}
	s.logInfo(r.Context(), "Statement imported",
		log.FieldAccountID, accountID, "imported", len(out.Imported), "skipped", out.Skipped)
	OK(out).Write(w)
}
