package finance

import (
	"fmt"

	"github.com/buildledger/backend/internal/domain/shared"
	"github.com/buildledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementStrategy selects how an invoice's remaining balance is
// reconciled against the expense ledger. Exactly one strategy is supplied
// per settlement call; the strategies are mutually exclusive.
type SettlementStrategy string

const (
	// StrategyLinkExisting absorbs pre-existing unpaid expenses whose
	// amounts sum to the entire remaining balance.
	StrategyLinkExisting SettlementStrategy = "link_existing"
	// StrategyCreateWithProjects spawns new paid expenses distributed
	// across projects.
	StrategyCreateWithProjects SettlementStrategy = "create_with_projects"
	// StrategyCreateWithSubProjects spawns new paid expenses distributed
	// across sub-projects.
	StrategyCreateWithSubProjects SettlementStrategy = "create_with_sub_projects"
	// StrategyCreateGeneral spawns a single untargeted paid expense for the
	// full remaining balance.
	StrategyCreateGeneral SettlementStrategy = "create_general"
)

// IsValid checks if the strategy is valid
func (s SettlementStrategy) IsValid() bool {
	switch s {
	case StrategyLinkExisting, StrategyCreateWithProjects,
		StrategyCreateWithSubProjects, StrategyCreateGeneral:
		return true
	}
	return false
}

// String returns the string representation of SettlementStrategy
func (s SettlementStrategy) String() string {
	return string(s)
}

// SpawnsExpenses returns true if the strategy creates new ledger entries
// rather than absorbing existing ones
func (s SettlementStrategy) SpawnsExpenses() bool {
	return s != StrategyLinkExisting
}

// TargetType returns the distribution target type for the strategy, or ""
// for strategies without distribution targets
func (s SettlementStrategy) TargetType() SettlementTargetType {
	switch s {
	case StrategyCreateWithProjects:
		return TargetTypeProject
	case StrategyCreateWithSubProjects:
		return TargetTypeSubProject
	}
	return ""
}

// DistributionLine is one line of a settlement cost distribution: an amount
// attributed to a project or sub-project, with an optional note.
type DistributionLine struct {
	TargetID uuid.UUID       `json:"target_id"`
	Amount   decimal.Decimal `json:"amount"`
	Note     string          `json:"note,omitempty"`
}

// newBalanceMismatchError reports the computed versus expected amounts so
// the caller can correct the request.
func newBalanceMismatchError(supplied, remaining decimal.Decimal) *shared.DomainError {
	return shared.NewDomainError("BALANCE_MISMATCH",
		fmt.Sprintf("Supplied amounts sum to %s but the remaining balance is %s",
			supplied.StringFixed(2), remaining.StringFixed(2))).
		WithDetail("supplied_total", supplied.StringFixed(2)).
		WithDetail("remaining_balance", remaining.StringFixed(2)).
		WithDetail("difference", supplied.Sub(remaining).Abs().StringFixed(2))
}

// ValidateDistribution checks that a cost distribution is well formed and
// covers the remaining balance within the cent tolerance.
func ValidateDistribution(lines []DistributionLine, remaining decimal.Decimal) error {
	if len(lines) == 0 {
		return shared.NewDomainError("VALIDATION", "Cost distribution cannot be empty")
	}

	total := decimal.Zero
	for idx, line := range lines {
		if line.TargetID == uuid.Nil {
			return shared.NewDomainError("VALIDATION",
				fmt.Sprintf("Distribution line %d: target ID cannot be empty", idx+1))
		}
		if line.Amount.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError("VALIDATION",
				fmt.Sprintf("Distribution line %d: amount must be positive", idx+1))
		}
		total = total.Add(line.Amount)
	}

	if !valueobject.AmountsEqual(total, remaining) {
		return newBalanceMismatchError(total, remaining)
	}
	return nil
}

// ValidateLinkedExpenses checks that the expenses selected for link_existing
// are all unpaid and sum to the entire remaining balance. This strategy is
// an all-at-once reconciliation: a partial match is rejected.
func ValidateLinkedExpenses(expenses []*Expense, remaining decimal.Decimal) error {
	if len(expenses) == 0 {
		return shared.NewDomainError("VALIDATION", "At least one expense must be linked")
	}

	total := decimal.Zero
	for _, e := range expenses {
		if e.PaymentStatus.IsClosed() {
			return shared.NewDomainError("ALREADY_SETTLED",
				fmt.Sprintf("Expense %s is already %s", e.ExpenseNumber, e.PaymentStatus)).
				WithDetail("expense_id", e.ID.String())
		}
		total = total.Add(e.Amount)
	}

	if !valueobject.AmountsEqual(total, remaining) {
		return newBalanceMismatchError(total, remaining)
	}
	return nil
}
