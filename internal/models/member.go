package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Member represents a gym member with their billing profile. PaymentDay is
// the day-of-month anchor the member's invoice is due on; PaidUntil is the
// date through which the account is covered, nil when they have never paid.
type Member struct {
	ID            string          `db:"id" json:"id"`
	UserID        *string         `db:"user_id" json:"user_id,omitempty"`
	FullName      string          `db:"full_name" json:"full_name"`
	Email         string          `db:"email" json:"email"`
	Phone         string          `db:"phone" json:"phone"`
	Document      string          `db:"document" json:"document"`
	PlanType      string          `db:"plan_type" json:"plan_type"`
	PlanPrice     decimal.Decimal `db:"plan_price" json:"plan_price"`
	PaymentDay    int             `db:"payment_day" json:"payment_day"`
	PaidUntil     *time.Time      `db:"paid_until" json:"paid_until,omitempty"`
	LastPaymentAt *time.Time      `db:"last_payment_at" json:"last_payment_at,omitempty"`
	Active        bool            `db:"active" json:"active"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// MemberFilter encapsulates allowed search parameters for listing members.
type MemberFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Payment records a registered membership payment.
type Payment struct {
	ID       string          `db:"id" json:"id"`
	MemberID string          `db:"member_id" json:"member_id"`
	Months   int             `db:"months" json:"months"`
	Amount   decimal.Decimal `db:"amount" json:"amount"`
	PaidAt   time.Time       `db:"paid_at" json:"paid_at"`
}

// MemberFinance is the billing view of a member: the stored profile plus the
// derived due dates and situation, with dates rendered as YYYY-MM-DD.
type MemberFinance struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	Document      string  `json:"document"`
	PlanType      string  `json:"plan_type"`
	PaymentDay    int     `json:"payment_day"`
	PaidUntil     *string `json:"paid_until"`
	LastPaymentAt *string `json:"last_payment_at"`
	DueDate       string  `json:"due_date"`
	NextDueDate   string  `json:"next_due_date"`
	Situation     string  `json:"situation"`
}

// FinanceSummary aggregates billing standing across active members.
// Percentages are rounded to the nearest integer and are both zero when
// there are no members.
type FinanceSummary struct {
	Total             int `json:"total"`
	Current           int `json:"current"`
	Delinquent        int `json:"delinquent"`
	CurrentPercent    int `json:"current_percent"`
	DelinquentPercent int `json:"delinquent_percent"`
}
