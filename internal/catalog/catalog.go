// Package catalog holds the predefined income and expense categories and
// resolves category ids, including user-created custom categories.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

var expenseCategories = []core.Category{
	{ID: "food_dining", Name: "Food & Dining", Emoji: "🍔", Color: "#FF6B6B", Type: core.CategoryExpense},
	{ID: "groceries", Name: "Groceries", Emoji: "🛒", Color: "#4ECDC4", Type: core.CategoryExpense},
	{ID: "transportation", Name: "Transportation", Emoji: "🚗", Color: "#45B7D1", Type: core.CategoryExpense},
	{ID: "housing", Name: "Housing & Rent", Emoji: "🏠", Color: "#96CEB4", Type: core.CategoryExpense},
	{ID: "phone_internet", Name: "Phone & Internet", Emoji: "📱", Color: "#FFEAA7", Type: core.CategoryExpense},
	{ID: "utilities", Name: "Utilities", Emoji: "⚡", Color: "#DFE6E9", Type: core.CategoryExpense},
	{ID: "shopping", Name: "Shopping", Emoji: "🛍️", Color: "#FD79A8", Type: core.CategoryExpense},
	{ID: "entertainment", Name: "Entertainment", Emoji: "🎬", Color: "#A29BFE", Type: core.CategoryExpense},
	{ID: "healthcare", Name: "Healthcare", Emoji: "🏥", Color: "#74B9FF", Type: core.CategoryExpense},
	{ID: "pharmacy", Name: "Pharmacy", Emoji: "💊", Color: "#FF7675", Type: core.CategoryExpense},
	{ID: "education", Name: "Education", Emoji: "🎓", Color: "#6C5CE7", Type: core.CategoryExpense},
	{ID: "fitness", Name: "Fitness & Sports", Emoji: "🏋️", Color: "#00B894", Type: core.CategoryExpense},
	{ID: "travel", Name: "Travel", Emoji: "✈️", Color: "#0984E3", Type: core.CategoryExpense},
	{ID: "gifts", Name: "Gifts & Donations", Emoji: "🎁", Color: "#E17055", Type: core.CategoryExpense},
	{ID: "personal_care", Name: "Personal Care", Emoji: "💇", Color: "#FDCB6E", Type: core.CategoryExpense},
	{ID: "pets", Name: "Pets", Emoji: "🐕", Color: "#F39C12", Type: core.CategoryExpense},
	{ID: "maintenance", Name: "Maintenance", Emoji: "🔧", Color: "#95A5A6", Type: core.CategoryExpense},
	{ID: "bills_fees", Name: "Bills & Fees", Emoji: "📄", Color: "#636E72", Type: core.CategoryExpense},
	{ID: "credit_payment", Name: "Credit Card Payment", Emoji: "💳", Color: "#2D3436", Type: core.CategoryExpense},
	{ID: "investments", Name: "Investments", Emoji: "📊", Color: "#00B894", Type: core.CategoryExpense},
	{ID: "gaming", Name: "Gaming", Emoji: "🎮", Color: "#6C5CE7", Type: core.CategoryExpense},
	{ID: "coffee_snacks", Name: "Coffee & Snacks", Emoji: "☕", Color: "#D63031", Type: core.CategoryExpense},
	{ID: "taxi", Name: "Taxi & Ride Share", Emoji: "🚕", Color: "#FDCB6E", Type: core.CategoryExpense},
	{ID: "fuel", Name: "Fuel", Emoji: "⛽", Color: "#E17055", Type: core.CategoryExpense},
	{ID: "parking", Name: "Parking", Emoji: "🅿️", Color: "#74B9FF", Type: core.CategoryExpense},
	{ID: "subscriptions", Name: "Subscriptions", Emoji: "🎵", Color: "#A29BFE", Type: core.CategoryExpense},
	{ID: "books_media", Name: "Books & Media", Emoji: "📚", Color: "#55EFC4", Type: core.CategoryExpense},
	{ID: "kids_family", Name: "Kids & Family", Emoji: "👶", Color: "#FD79A8", Type: core.CategoryExpense},
	{ID: "work_expenses", Name: "Work Expenses", Emoji: "💼", Color: "#636E72", Type: core.CategoryExpense},
	{ID: "hobbies", Name: "Hobbies", Emoji: "🎨", Color: "#FF7675", Type: core.CategoryExpense},
	{ID: "other_expense", Name: "Other", Emoji: "🌟", Color: "#B2BEC3", Type: core.CategoryExpense},
}

var incomeCategories = []core.Category{
	{ID: "salary", Name: "Salary", Emoji: "💼", Color: "#00B894", Type: core.CategoryIncome},
	{ID: "business", Name: "Business Income", Emoji: "💵", Color: "#00CEC9", Type: core.CategoryIncome},
	{ID: "gifts_received", Name: "Gifts Received", Emoji: "🎁", Color: "#FD79A8", Type: core.CategoryIncome},
	{ID: "investment_income", Name: "Investment Returns", Emoji: "📈", Color: "#6C5CE7", Type: core.CategoryIncome},
	{ID: "bonus", Name: "Bonus", Emoji: "💰", Color: "#FDCB6E", Type: core.CategoryIncome},
	{ID: "awards", Name: "Awards", Emoji: "🏆", Color: "#F39C12", Type: core.CategoryIncome},
	{ID: "refunds", Name: "Refunds", Emoji: "💸", Color: "#74B9FF", Type: core.CategoryIncome},
	{ID: "transfers", Name: "Transfers", Emoji: "🔄", Color: "#DFE6E9", Type: core.CategoryIncome},
	{ID: "other_income", Name: "Other Income", Emoji: "🌟", Color: "#B2BEC3", Type: core.CategoryIncome},
}

// DisplayInfo is what a UI needs to render a category reference.
type DisplayInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
	Color string `json:"color"`
}

// Fallback is shown for ids that resolve to nothing.
var Fallback = DisplayInfo{Name: "Other", Emoji: "🌟", Color: "#B2BEC3"}

// Catalog resolves category ids against the predefined set plus the custom
// categories it was built with. It is a value snapshot; rebuild it when the
// custom categories change.
type Catalog struct {
	custom []core.Category
	byID   map[string]core.Category
}

// New returns a catalog over the predefined categories and custom.
func New(custom []core.Category) *Catalog {
	c := &Catalog{
		custom: append([]core.Category(nil), custom...),
		byID:   make(map[string]core.Category, len(expenseCategories)+len(incomeCategories)+len(custom)),
	}
	for _, cat := range c.custom {
		c.byID[cat.ID] = cat
	}
	// Predefined ids win over custom ones with the same id.
	for _, cat := range Predefined() {
		c.byID[cat.ID] = cat
	}
	return c
}

// Predefined returns income categories followed by expense categories.
func Predefined() []core.Category {
	out := make([]core.Category, 0, len(incomeCategories)+len(expenseCategories))
	out = append(out, incomeCategories...)
	return append(out, expenseCategories...)
}

// ByType returns the predefined categories of one type.
func ByType(t core.CategoryType) []core.Category {
	if t == core.CategoryIncome {
		return append([]core.Category(nil), incomeCategories...)
	}
	return append([]core.Category(nil), expenseCategories...)
}

// All returns predefined categories followed by active custom ones.
func (c *Catalog) All() []core.Category {
	out := Predefined()
	for _, cat := range c.custom {
		if cat.IsActive {
			out = append(out, cat)
		}
	}
	return out
}

// Lookup finds a category by id. Inactive custom categories are still found.
func (c *Catalog) Lookup(id core.CategoryID) (core.Category, bool) {
	cat, ok := c.byID[string(id)]
	return cat, ok
}

// IsValid reports whether id names a known category.
func (c *Catalog) IsValid(id core.CategoryID) bool {
	_, ok := c.Lookup(id)
	return ok
}

// Resolve never fails: unknown ids render as Fallback.
func (c *Catalog) Resolve(id core.CategoryID) DisplayInfo {
	cat, ok := c.Lookup(id)
	if !ok {
		info := Fallback
		info.ID = string(id)
		return info
	}
	return DisplayInfo{ID: cat.ID, Name: cat.Name, Emoji: cat.Emoji, Color: cat.Color}
}

// Search matches the query against names case-insensitively and against
// emoji verbatim. An empty type searches every type. Inactive custom
// categories are left out.
func (c *Catalog) Search(query string, t core.CategoryType) []core.Category {
	lower := strings.ToLower(query)
	var out []core.Category
	for _, cat := range c.All() {
		if t != "" && cat.Type != t {
			continue
		}
		if strings.Contains(strings.ToLower(cat.Name), lower) || strings.Contains(cat.Emoji, query) {
			out = append(out, cat)
		}
	}
	return out
}

// NewCustom builds an active custom category with a time based id.
func NewCustom(name, emoji, color string, t core.CategoryType, now time.Time) core.Category {
	return core.Category{
		ID:       fmt.Sprintf("custom_%d", now.UnixMilli()),
		Name:     strings.TrimSpace(name),
		Emoji:    emoji,
		Color:    color,
		Type:     t,
		IsCustom: true,
		IsActive: true,
	}
}

// CategoryTotal is the summed expense of one category.
type CategoryTotal struct {
	CategoryID core.CategoryID `json:"categoryId"`
	Total      decimal.Decimal `json:"total"`
}

// TopCategories ranks categories by expense total, highest first. Ties keep
// the order in which categories first appear in the ledger.
func TopCategories(ledger []core.Transaction, limit int) []CategoryTotal {
	var order []core.CategoryID
	totals := map[core.CategoryID]decimal.Decimal{}
	for _, tx := range ledger {
		if !tx.Type.Is(core.Expense) || tx.Category == "" {
			continue
		}
		if _, seen := totals[tx.Category]; !seen {
			order = append(order, tx.Category)
		}
		totals[tx.Category] = totals[tx.Category].Add(tx.Amount)
	}

	out := make([]CategoryTotal, 0, len(order))
	for _, id := range order {
		out = append(out, CategoryTotal{CategoryID: id, Total: totals[id]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.GreaterThan(out[j].Total)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SpendingSummary is per-category income and expense over a ledger.
type SpendingSummary struct {
	Category core.Category   `json:"category"`
	Income   decimal.Decimal `json:"income"`
	Expense  decimal.Decimal `json:"expense"`
	Count    int             `json:"count"`
}

// Summarize groups the ledger by known category. Entries with unknown or
// missing categories are skipped, and so are payments, which settle card
// debt rather than spend.
func (c *Catalog) Summarize(ledger []core.Transaction) []SpendingSummary {
	index := map[core.CategoryID]int{}
	var out []SpendingSummary
	for _, tx := range ledger {
		if tx.Category == "" || !(tx.Type.Is(core.Income) || tx.Type.Is(core.Expense)) {
			continue
		}
		cat, ok := c.Lookup(tx.Category)
		if !ok {
			continue
		}
		i, seen := index[tx.Category]
		if !seen {
			i = len(out)
			index[tx.Category] = i
			out = append(out, SpendingSummary{Category: cat})
		}
		if tx.Type.Is(core.Income) {
			out[i].Income = out[i].Income.Add(tx.Amount)
		} else {
			out[i].Expense = out[i].Expense.Add(tx.Amount)
		}
		out[i].Count++
	}
	return out
}
