package http

import (
	"errors"
	"net/http"
	"strings"

	"fintrack/internal/budget"
	"fintrack/internal/catalog"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

// budgetView is a budget with its month-to-date evaluation.
type budgetView struct {
	core.Budget
	Evaluation budget.Evaluation `json:"evaluation"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	state := s.store.State()
	now := s.now()
	out := make([]budgetView, 0, len(state.Budgets))
	for _, b := range state.Budgets {
		out = append(out, budgetView{Budget: b, Evaluation: budget.Evaluate(b, state.Transactions, now)})
	}
	OK(out).Write(w)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	state := s.store.State()
	b, ok := state.BudgetByID(r.PathValue("id"))
	if !ok {
		s.fail(w, r, notFound("budget %s not found", r.PathValue("id")))
		return
	}
	OK(budgetView{Budget: b, Evaluation: budget.Evaluate(b, state.Transactions, s.now())}).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decode(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	b := req.budget(s.newID(), s.today())
	if err := checkBudget(s.store.State(), b); err != nil {
		s.fail(w, r, err)
		return
	}
	s.store.Dispatch(store.AddBudget{Budget: b})
	s.logInfo(r.Context(), "Budget created",
		log.FieldBudgetID, b.ID, log.FieldCategory, string(b.CategoryID), log.FieldAmount, b.Amount.String())
	Created(b).Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decode(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	state := s.store.State()
	id := r.PathValue("id")
	existing, ok := state.BudgetByID(id)
	if !ok {
		s.fail(w, r, notFound("budget %s not found", id))
		return
	}
	b := req.budget(id, existing.StartDate)
	if err := checkBudget(state, b); err != nil {
		s.fail(w, r, err)
		return
	}
	s.store.Dispatch(store.UpdateBudget{Budget: b})
	OK(b).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	id := r.PathValue("id")
	if _, ok := s.store.State().BudgetByID(id); !ok {
		s.fail(w, r, notFound("budget %s not found", id))
		return
	}
	s.store.Dispatch(store.DeleteBudget{ID: id})
	NoContent().Write(w)
}

// checkBudget allows only monthly budgets on known expense categories.
func checkBudget(state store.State, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return unprocessable(err)
	}
	if b.Period != core.Monthly {
		return unprocessable(errors.New("unsupported budget period " + string(b.Period)))
	}
	cat, ok := catalog.New(state.CustomCategories).Lookup(b.CategoryID)
	if !ok {
		return unprocessable(errors.New("unknown category " + string(b.CategoryID)))
	}
	if cat.Type != core.CategoryExpense {
		return unprocessable(errors.New("budgets apply to expense categories only"))
	}
	return nil
}

// handleListCategories searches when q is set and otherwise lists every
// active category, optionally of one type.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	t := core.CategoryType(strings.ToUpper(strings.TrimSpace(query.Get("type"))))
	if t != "" && !t.IsValid() {
		s.fail(w, r, badRequest(errors.New("invalid category type "+string(t))))
		return
	}

	names := catalog.New(s.store.State().CustomCategories)
	out := names.Search(strings.TrimSpace(query.Get("q")), t)
	if out == nil {
		out = []core.Category{}
	}
	OK(out).Write(w)
}

func (s *Server) handleResolveCategory(w http.ResponseWriter, r *http.Request) {
	names := catalog.New(s.store.State().CustomCategories)
	OK(names.Resolve(core.CategoryID(r.PathValue("id")))).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decode(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cat := catalog.NewCustom(sanitizeInput(req.Name), req.Emoji, req.Color, req.categoryType(), s.now())
	if err := cat.Validate(); err != nil {
		s.fail(w, r, unprocessable(err))
		return
	}
	state := s.store.State()
	if catalog.New(state.CustomCategories).IsValid(core.CategoryID(cat.ID)) {
		s.fail(w, r, conflict("category %s already exists", cat.ID))
		return
	}
	s.store.Dispatch(store.AddCustomCategory{Category: cat})
	s.logInfo(r.Context(), "Custom category created", log.FieldCategory, cat.ID)
	Created(cat).Write(w)
}

// handleUpdateCategory edits a custom category. Predefined ones are read-only.
func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decode(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, ok := customCategory(s.store.State(), r.PathValue("id"))
	if !ok {
		s.fail(w, r, notFound("custom category %s not found", r.PathValue("id")))
		return
	}
	cat := existing
	cat.Name = sanitizeInput(req.Name)
	cat.Emoji = req.Emoji
	cat.Color = req.Color
	cat.Type = req.categoryType()
	if req.IsActive != nil {
		cat.IsActive = *req.IsActive
	}
	if err := cat.Validate(); err != nil {
		s.fail(w, r, unprocessable(err))
		return
	}
	s.store.Dispatch(store.UpdateCustomCategory{Category: cat})
	OK(cat).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	id := r.PathValue("id")
	if _, ok := customCategory(s.store.State(), id); !ok {
		s.fail(w, r, notFound("custom category %s not found", id))
		return
	}
	s.store.Dispatch(store.DeleteCustomCategory{ID: id})
	NoContent().Write(w)
}

func customCategory(state store.State, id string) (core.Category, bool) {
	for _, c := range state.CustomCategories {
		if c.ID == id {
			return c, true
		}
	}
	return core.Category{}, false
}
