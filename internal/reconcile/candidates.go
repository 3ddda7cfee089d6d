package reconcile

import (
	"reconledger-backend/internal/domain"
)

// FromObligation builds the candidate for an open receivable or payable.
func FromObligation(o domain.Obligation) Candidate {
	due := o.DueDate
	c := Candidate{
		Target:    o.Target(),
		Direction: o.Kind.Direction(),
		Name:      o.CounterpartyName,
		Amount:    o.Amount,
		Remaining: o.Remaining(),
		DueDate:   &due,
	}
	if o.Description != "" {
		c.Aliases = []string{o.Description}
	}
	return c
}

// FromCustody builds the candidate for the leg of a custody that the matcher
// may fill: asset custodies take inflows, liability custodies take outflows.
func FromCustody(c domain.Custody) Candidate {
	dir := domain.DirectionInflow
	if c.Kind == domain.CustodyLiability {
		dir = domain.DirectionOutflow
	}
	remaining := c.LegRemaining(dir)
	cand := Candidate{
		Target:    c.Target(),
		Direction: dir,
		Name:      c.CounterpartyName,
		Amount:    remaining,
		Remaining: remaining,
	}
	if c.Description != "" {
		cand.Aliases = []string{c.Description}
	}
	return cand
}
