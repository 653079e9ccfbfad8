package http

import (
	"encoding/json"
	"net/http"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/services"
	"fintrack/internal/store"
)

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if s.inbox == nil {
		OK([]services.Notification{}).Write(w)
		return
	}
	out := s.inbox.Recent()
	if limit := parseLimit(r.URL.Query(), len(out), len(out)); limit < len(out) {
		out = out[:limit]
	}
	OK(out).Write(w)
}

type statsResponse struct {
	Revision      uint64                   `json:"revision"`
	Uptime        string                   `json:"uptime"`
	Accounts      int                      `json:"accounts"`
	Transactions  int                      `json:"transactions"`
	Pending       int                      `json:"pending"`
	Persister     *services.PersisterStats `json:"persister,omitempty"`
	Exporter      *services.ExporterStats  `json:"exporter,omitempty"`
	OverviewCache cache.Stats              `json:"overviewCache"`
	Security      SecurityStats            `json:"security"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	state := s.store.State()
	out := statsResponse{
		Revision:      s.store.Revision(),
		Uptime:        s.now().Sub(s.started).Round(time.Second).String(),
		Accounts:      len(state.Accounts),
		Transactions:  len(state.Transactions),
		Pending:       len(state.PendingTransactions),
		OverviewCache: s.overviewCache.Stats(),
		Security:      s.metrics.snapshot(),
	}
	if s.persister != nil {
		ps := s.persister.Stats()
		out.Persister = &ps
	}
	if s.exporter != nil {
		es := s.exporter.Stats()
		out.Exporter = &es
	}
	OK(out).Write(w)
}

// handleHistory lists recent snapshot saves, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.fail(w, r, notFound("save history is not kept by this blob backend"))
		return
	}
	records, err := s.history.History(r.Context(), s.stateKey, parseLimit(r.URL.Query(), 20, 100))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	OK(records).Write(w)
}

// handleExport downloads the current snapshot in the persisted format.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := store.Encode(s.store.State())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	OK(json.RawMessage(data)).
		Header("Content-Disposition", `attachment; filename="fintrack-backup.json"`).
		Write(w)
}
