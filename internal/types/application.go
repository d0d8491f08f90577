// Package types provides type definitions for structured data used throughout the credit-scorer system.
package types

import (
	"github.com/go-playground/validator/v10"
)

// Loan decisions, ordered from best to worst outcome.
const (
	DecisionApproved     = "Approved"
	DecisionConditional  = "Conditionally Approved"
	DecisionManualReview = "Manual Review Required"
	DecisionDeclined     = "Declined"
)

// LoanApplication represents one incoming credit application.
type LoanApplication struct {
	ApplicationID    string  `json:"application_id"`
	BorrowerID       string  `json:"borrower_id"`
	Name             string  `json:"name,omitempty"`
	Email            string  `json:"email,omitempty" validate:"omitempty,email"`
	ApplicationDate  string  `json:"application_date,omitempty"`
	LoanAmount       float64 `json:"loan_amount" validate:"required,gt=0"`
	InterestRate     float64 `json:"interest_rate" validate:"gte=0,lte=100"`
	TermDays         int     `json:"term_days" validate:"gt=0"`
	CreditScore      float64 `json:"credit_score" validate:"gte=0,lte=850"`
	Income           float64 `json:"income" validate:"gte=0"`
	DebtToIncome     float64 `json:"debt_to_income" validate:"gte=0,lte=10"`
	EmploymentYears  float64 `json:"employment_years" validate:"gte=0"`
	IsCollateralized bool    `json:"is_collateralized"`
	CollateralValue  float64 `json:"collateral_value" validate:"gte=0"`
	PreviousLoans    int     `json:"previous_loans" validate:"gte=0"`
	PreviousDefaults int     `json:"previous_defaults" validate:"gte=0"`
}

// Validate validates the LoanApplication using the validator.
func (a *LoanApplication) Validate() error {
	validate := validator.New()
	return validate.Struct(a)
}
