package http

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tracker/internal/core"
	"tracker/internal/services"
)

type itemDTO struct {
	Name       string      `json:"name"`
	Quantity   json.Number `json:"quantity,omitempty"`
	UnitPrice  json.Number `json:"unit_price"`
	TotalPrice json.Number `json:"total_price,omitempty"`
}

type transactionRequest struct {
	Type               string      `json:"type"`
	Amount             json.Number `json:"amount"`
	Currency           string      `json:"currency"`
	CategoryID         string      `json:"category_id"`
	MerchantName       string      `json:"merchant_name"`
	Description        string      `json:"description"`
	Date               string      `json:"date"`
	Items              []itemDTO   `json:"items"`
	Tags               []string    `json:"tags"`
	ReceiptID          string      `json:"receipt_id"`
	IsRecurring        bool        `json:"is_recurring"`
	RecurringFrequency string      `json:"recurring_frequency"`
	RecurringInterval  *int        `json:"recurring_interval"`
	RecurringEndDate   string      `json:"recurring_end_date"`
}

type transactionUpdateRequest struct {
	Type               *string      `json:"type"`
	Amount             *json.Number `json:"amount"`
	Currency           *string      `json:"currency"`
	CategoryID         *string      `json:"category_id"`
	MerchantName       *string      `json:"merchant_name"`
	Description        *string      `json:"description"`
	Date               *string      `json:"date"`
	Items              *[]itemDTO   `json:"items"`
	Tags               *[]string    `json:"tags"`
	ReceiptID          *string      `json:"receipt_id"`
	IsRecurring        *bool        `json:"is_recurring"`
	RecurringFrequency *string      `json:"recurring_frequency"`
	RecurringInterval  *int         `json:"recurring_interval"`
	RecurringEndDate   *string      `json:"recurring_end_date"`
}

type itemResponse struct {
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
}

type transactionResponse struct {
	ID                 string         `json:"id"`
	Type               string         `json:"type"`
	Amount             float64        `json:"amount"`
	Currency           string         `json:"currency"`
	CategoryID         *string        `json:"category_id"`
	CategoryName       *string        `json:"category_name"`
	MerchantName       *string        `json:"merchant_name"`
	Description        *string        `json:"description"`
	Date               time.Time      `json:"date"`
	Items              []itemResponse `json:"items"`
	ReceiptID          *string        `json:"receipt_id"`
	Tags               []string       `json:"tags"`
	IsRecurring        bool           `json:"is_recurring"`
	RecurringFrequency *string        `json:"recurring_frequency,omitempty"`
	RecurringInterval  *int           `json:"recurring_interval,omitempty"`
	RecurringEndDate   *string        `json:"recurring_end_date,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

type categoryRequest struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
	Type  string `json:"type"`
}

type categoryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
	Type  string `json:"type"`
}

type settingsRequest struct {
	ScannerAPIKey   *string      `json:"scanner_api_key"`
	DefaultCurrency *string      `json:"default_currency"`
	Theme           *string      `json:"theme"`
	BudgetAlerts    *bool        `json:"budget_alerts"`
	MonthlyBudget   *json.Number `json:"monthly_budget"`
}

type settingsResponse struct {
	DefaultCurrency  string   `json:"default_currency"`
	Theme            string   `json:"theme"`
	BudgetAlerts     bool     `json:"budget_alerts"`
	MonthlyBudget    *float64 `json:"monthly_budget"`
	HasScannerAPIKey bool     `json:"has_scanner_api_key"`
}

type periodStats struct {
	TotalIncome      float64 `json:"total_income"`
	TotalExpenses    float64 `json:"total_expenses"`
	Net              float64 `json:"net"`
	TransactionCount int     `json:"transaction_count"`
}

type breakdownEntry struct {
	CategoryID   *string `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Amount       float64 `json:"amount"`
	Percentage   float64 `json:"percentage"`
	Color        string  `json:"color"`
}

type analyticsResponse struct {
	Period           string           `json:"period"`
	Start            time.Time        `json:"start"`
	End              time.Time        `json:"end"`
	Stats            periodStats      `json:"stats"`
	ExpenseBreakdown []breakdownEntry `json:"expense_breakdown"`
	IncomeBreakdown  []breakdownEntry `json:"income_breakdown"`
}

type notificationResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Time    string `json:"time"`
}

// fieldError marks a request body problem; it maps to 422.
type fieldError struct {
	Field string
	Err   error
}

func (e *fieldError) Error() string { return fmt.Sprintf("%s: %v", e.Field, e.Err) }
func (e *fieldError) Unwrap() error { return e.Err }

func parseMoneyField(field string, n json.Number) (core.Money, error) {
	m, err := core.ParseAmount(n.String())
	if err != nil {
		return core.Money{}, &fieldError{Field: field, Err: err}
	}
	return m, nil
}

func parseItems(items []itemDTO) ([]core.TransactionItem, error) {
	out := make([]core.TransactionItem, 0, len(items))
	for i, it := range items {
		item := core.TransactionItem{Name: sanitizeInput(it.Name), Quantity: core.MustParseAmount("1")}
		if it.Quantity != "" {
			q, err := parseMoneyField(fmt.Sprintf("items[%d].quantity", i), it.Quantity)
			if err != nil {
				return nil, err
			}
			item.Quantity = q
		}
		price, err := parseMoneyField(fmt.Sprintf("items[%d].unit_price", i), it.UnitPrice)
		if err != nil {
			return nil, err
		}
		item.UnitPrice = price
		if it.TotalPrice != "" {
			total, err := parseMoneyField(fmt.Sprintf("items[%d].total_price", i), it.TotalPrice)
			if err != nil {
				return nil, err
			}
			item.TotalPrice = total
		}
		out = append(out, item)
	}
	return out, nil
}

func parseRule(freq string, interval *int, endDate string) (*core.RecurrenceRule, error) {
	rule := &core.RecurrenceRule{Frequency: core.Frequency(freq), Interval: 1}
	if interval != nil {
		rule.Interval = *interval
	}
	if endDate != "" {
		d, err := core.ParseDate(endDate)
		if err != nil {
			return nil, &fieldError{Field: "recurring_end_date", Err: err}
		}
		rule.EndDate = &d
	}
	return rule, nil
}

func (req transactionRequest) toTransaction(userID string) (core.Transaction, error) {
	typ, err := core.ParseTransactionType(req.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := parseMoneyField("amount", req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseTimestamp(req.Date)
	if err != nil {
		return core.Transaction{}, &fieldError{Field: "date", Err: err}
	}
	items, err := parseItems(req.Items)
	if err != nil {
		return core.Transaction{}, err
	}

	t := core.Transaction{
		UserID:       userID,
		Type:         typ,
		Amount:       amount,
		Currency:     sanitizeInput(req.Currency),
		CategoryID:   req.CategoryID,
		MerchantName: sanitizeInput(req.MerchantName),
		Description:  sanitizeInput(req.Description),
		Date:         date,
		Items:        items,
		Tags:         req.Tags,
		ReceiptID:    req.ReceiptID,
		IsRecurring:  req.IsRecurring,
	}
	if req.IsRecurring && req.RecurringFrequency != "" {
		if t.Recurrence, err = parseRule(req.RecurringFrequency, req.RecurringInterval, req.RecurringEndDate); err != nil {
			return core.Transaction{}, err
		}
	}
	return t, nil
}

func (req transactionUpdateRequest) toPatch() (services.TransactionPatch, error) {
	var p services.TransactionPatch
	if req.Type != nil {
		typ, err := core.ParseTransactionType(*req.Type)
		if err != nil {
			return p, err
		}
		p.Type = &typ
	}
	if req.Amount != nil {
		m, err := parseMoneyField("amount", *req.Amount)
		if err != nil {
			return p, err
		}
		p.Amount = &m
	}
	if req.Date != nil {
		d, err := core.ParseTimestamp(*req.Date)
		if err != nil {
			return p, &fieldError{Field: "date", Err: err}
		}
		p.Date = &d
	}
	if req.Items != nil {
		items, err := parseItems(*req.Items)
		if err != nil {
			return p, err
		}
		p.Items = &items
	}
	if req.RecurringFrequency != nil {
		end := ""
		if req.RecurringEndDate != nil {
			end = *req.RecurringEndDate
		}
		rule, err := parseRule(*req.RecurringFrequency, req.RecurringInterval, end)
		if err != nil {
			return p, err
		}
		p.Recurrence = rule
	}
	p.Currency = sanitizePtr(req.Currency)
	p.CategoryID = req.CategoryID
	p.MerchantName = sanitizePtr(req.MerchantName)
	p.Description = sanitizePtr(req.Description)
	p.Tags = req.Tags
	p.ReceiptID = req.ReceiptID
	p.IsRecurring = req.IsRecurring
	return p, nil
}

func (req settingsRequest) toPatch() (services.SettingsPatch, error) {
	p := services.SettingsPatch{
		DefaultCurrency: sanitizePtr(req.DefaultCurrency),
		Theme:           req.Theme,
		BudgetAlerts:    req.BudgetAlerts,
		ScannerAPIKey:   req.ScannerAPIKey,
	}
	if req.MonthlyBudget != nil {
		d, err := decimal.NewFromString(req.MonthlyBudget.String())
		if err != nil || d.IsNegative() {
			return p, &fieldError{Field: "monthly_budget", Err: core.ErrInvalidAmount}
		}
		m := core.NewMoney(d).Round2()
		p.MonthlyBudget = &m
	}
	return p, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:           t.ID,
		Type:         string(t.Type),
		Amount:       t.Amount.Float64(),
		Currency:     t.Currency,
		CategoryID:   optional(t.CategoryID),
		CategoryName: optional(t.CategoryName),
		MerchantName: optional(t.MerchantName),
		Description:  optional(t.Description),
		Date:         t.Date,
		Items:        make([]itemResponse, len(t.Items)),
		ReceiptID:    optional(t.ReceiptID),
		Tags:         t.Tags,
		IsRecurring:  t.IsRecurring,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	for i, it := range t.Items {
		resp.Items[i] = itemResponse{
			Name:       it.Name,
			Quantity:   it.Quantity.Float64(),
			UnitPrice:  it.UnitPrice.Float64(),
			TotalPrice: it.TotalPrice.Float64(),
		}
	}
	if t.IsRecurring && t.Recurrence != nil {
		freq := string(t.Recurrence.Frequency)
		interval := t.Recurrence.Interval
		resp.RecurringFrequency = &freq
		resp.RecurringInterval = &interval
		if t.Recurrence.EndDate != nil {
			resp.RecurringEndDate = optional(t.Recurrence.EndDate.ISO())
		}
	}
	return resp
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Icon: c.Icon, Color: c.Color, Type: string(c.Type)}
}

func toSettingsResponse(s core.Settings) settingsResponse {
	resp := settingsResponse{
		DefaultCurrency:  s.DefaultCurrency,
		Theme:            s.Theme,
		BudgetAlerts:     s.BudgetAlerts,
		HasScannerAPIKey: s.ScannerAPIKey != "",
	}
	if s.MonthlyBudget != nil {
		v := s.MonthlyBudget.Float64()
		resp.MonthlyBudget = &v
	}
	return resp
}

func toBreakdown(entries []core.CategoryBreakdownEntry) []breakdownEntry {
	out := make([]breakdownEntry, len(entries))
	for i, e := range entries {
		out[i] = breakdownEntry{
			CategoryID:   e.CategoryID,
			CategoryName: e.CategoryName,
			Amount:       e.Amount.Float64(),
			Percentage:   e.Percentage,
			Color:        e.Color,
		}
	}
	return out
}

func toAnalyticsResponse(r core.AnalyticsReport) analyticsResponse {
	return analyticsResponse{
		Period: string(r.Period),
		Start:  r.Range.Start,
		End:    r.Range.End,
		Stats: periodStats{
			TotalIncome:      r.Stats.TotalIncome.Float64(),
			TotalExpenses:    r.Stats.TotalExpenses.Float64(),
			Net:              r.Stats.Net.Float64(),
			TransactionCount: r.Stats.TransactionCount,
		},
		ExpenseBreakdown: toBreakdown(r.ExpenseBreakdown),
		IncomeBreakdown:  toBreakdown(r.IncomeBreakdown),
	}
}

func toNotificationResponses(ns []core.Notification) []notificationResponse {
	out := make([]notificationResponse, len(ns))
	for i, n := range ns {
		out[i] = notificationResponse{ID: n.ID, Message: n.Message, Time: n.Time}
	}
	return out
}
