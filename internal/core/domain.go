package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	PeriodDaily   Period = "daily"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
	PeriodAll     Period = "all"
)

const (
	DefaultCurrency      = "€"
	UncategorizedName    = "Uncategorized"
	UncategorizedColor   = "#6B7280"
	maxDescriptionLength = 200
)

type (
	TransactionType string

	// Frequency is the unit a recurring transaction repeats on.
	Frequency string

	// Period selects the analytics window.
	Period string

	Date struct {
		time.Time
	}

	// RecurrenceRule is embedded in a recurring transaction. The anchor of the
	// rule is the transaction date itself.
	RecurrenceRule struct {
		Frequency Frequency
		Interval  int
		EndDate   *Date // no occurrence strictly after this day is due
	}

	TransactionItem struct {
		Name       string
		Quantity   Money
		UnitPrice  Money
		TotalPrice Money
	}

	Transaction struct {
		ID           string
		UserID       string
		Type         TransactionType
		Amount       Money
		Currency     string
		CategoryID   string // empty when uncategorized
		CategoryName string
		MerchantName string
		Description  string
		Date         time.Time
		Items        []TransactionItem
		Tags         []string
		ReceiptID    string
		IsRecurring  bool
		Recurrence   *RecurrenceRule
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	Category struct {
		ID     string
		UserID string
		Name   string
		Icon   string
		Color  string
		Type   TransactionType
	}

	Settings struct {
		UserID          string
		DefaultCurrency string
		Theme           string
		BudgetAlerts    bool
		MonthlyBudget   *Money
		ScannerAPIKey   string
		UpdatedAt       time.Time
	}

	// TransactionFilter narrows transaction listings. Zero values mean "no filter";
	// a zero Limit means unlimited.
	TransactionFilter struct {
		Type       TransactionType
		CategoryID string
		Start      *time.Time
		End        *time.Time
		Skip       int
		Limit      int
	}
)

var (
	ErrInvalidDay        = errors.New("invalid day")
	ErrInvalidMonth      = errors.New("invalid month")
	ErrInvalidYear       = errors.New("invalid year")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrInvalidFrequency  = errors.New("invalid recurring frequency")
	ErrInvalidInterval   = errors.New("recurring interval must be at least 1")
	ErrEndBeforeStart    = errors.New("recurring end date must not be before the transaction date")
	ErrMissingRule       = errors.New("recurring transaction requires a frequency")
	ErrEmptyDescription  = errors.New("empty description")
	ErrDescriptionLength = errors.New("description too long (max 200 characters)")
	ErrEmptyName         = errors.New("empty name")
	ErrInvalidColor      = errors.New("color must be a #RRGGBB hex value")
	ErrInvalidTheme      = errors.New("theme must be dark or light")
	ErrInvalidPeriod     = errors.New("period must be 'daily', 'monthly', 'yearly', or 'all'")
	ErrZeroDate          = errors.New("date cannot be zero")
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ParseTransactionType validates a transaction type tag.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(strings.TrimSpace(s)); t {
	case Expense, Income:
		return t, nil
	default:
		return "", ErrInvalidType
	}
}

// ParseFrequency validates a recurrence frequency tag. Unknown tags are
// rejected here so they never reach the occurrence calculator from user input.
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case Daily, Weekly, Monthly, Yearly:
		return f, nil
	default:
		return "", ErrInvalidFrequency
	}
}

// Known reports whether f is one of the supported frequencies.
func (f Frequency) Known() bool {
	_, err := ParseFrequency(string(f))
	return err == nil
}

func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodDaily, PeriodMonthly, PeriodYearly, PeriodAll:
		return p, nil
	default:
		return "", ErrInvalidPeriod
	}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf strips the time of day, anchoring t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// ISO formats the date as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// calendar day in UTC.
func ParseDate(s string) (Date, error) {
	t, err := ParseTimestamp(s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// ParseTimestamp accepts YYYY-MM-DD or an RFC 3339 timestamp, normalized to UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Anchor returns the calendar day occurrences are computed from.
func (t Transaction) Anchor() Date {
	return DateOf(t.Date)
}

// Title is the human label used in reminders.
func (t Transaction) Title() string {
	if s := strings.TrimSpace(t.MerchantName); s != "" {
		return s
	}
	if s := strings.TrimSpace(t.Description); s != "" {
		return s
	}
	return "Transaction"
}

func (t Transaction) Validate() error {
	if _, err := ParseTransactionType(string(t.Type)); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if len(t.Description) > maxDescriptionLength {
		return ErrDescriptionLength
	}
	if !t.IsRecurring {
		return nil
	}
	if t.Recurrence == nil {
		return ErrMissingRule
	}
	return t.Recurrence.Validate(t.Anchor())
}

// Validate checks a rule submitted through the API. Rules loaded from storage
// are not validated; malformed ones are skipped by the calculator instead.
func (r RecurrenceRule) Validate(anchor Date) error {
	if !r.Frequency.Known() {
		return ErrInvalidFrequency
	}
	if r.Interval < 1 {
		return ErrInvalidInterval
	}
	if r.EndDate != nil && r.EndDate.Before(anchor) {
		return ErrEndBeforeStart
	}
	return nil
}

func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > 50 {
		return errors.New("category name too long (max 50 characters)")
	}
	if !hexColor.MatchString(c.Color) {
		return ErrInvalidColor
	}
	if _, err := ParseTransactionType(string(c.Type)); err != nil {
		return err
	}
	return nil
}

// DefaultSettings returns the settings a user has before saving any.
func DefaultSettings(userID string) Settings {
	return Settings{
		UserID:          userID,
		DefaultCurrency: DefaultCurrency,
		Theme:           "dark",
		BudgetAlerts:    true,
	}
}

func (s Settings) Validate() error {
	if s.Theme != "dark" && s.Theme != "light" {
		return ErrInvalidTheme
	}
	if s.MonthlyBudget != nil && s.MonthlyBudget.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}
