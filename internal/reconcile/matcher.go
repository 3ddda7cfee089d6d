// Package reconcile links unallocated payments to open ledger targets.
//
// A payment is matched automatically only when the value is exactly right and
// the memo carries evidence of the counterparty's name; value-only hits are
// returned as suggestions for a person to confirm. Matching is a pure function
// of its input: amounts consumed inside one run are tracked in a local
// reservation map so later payments cannot spend the same target twice.
package reconcile

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"reconledger-backend/internal/domain"
)

// DefaultMaxSuggestions caps the candidates returned per unmatched payment.
const DefaultMaxSuggestions = 5

// Candidate is an open target as seen by the matcher.
type Candidate struct {
	Target domain.Target
	// Direction is the payment direction that may pay this target.
	Direction domain.Direction
	Name      string
	Aliases   []string
	// Amount is the face value a payment must equal. For custodies it is the
	// remaining balance of the leg.
	Amount    decimal.Decimal
	Remaining decimal.Decimal
	DueDate   *time.Time
}

func (c Candidate) names() []string {
	return append([]string{c.Name}, c.Aliases...)
}

// Pool holds the open targets of one run.
type Pool struct {
	Obligations []Candidate
	Custodies   []Candidate
}

type Options struct {
	MaxSuggestions int
}

type Result struct {
	Matches     []domain.ReconciliationMatch
	Suggestions []domain.ReconciliationSuggestion
	Unmatched   []int32
}

// reservations holds the amount consumed per target during one run.
type reservations map[domain.Target]decimal.Decimal

func (r reservations) available(c Candidate) decimal.Decimal {
	return c.Remaining.Sub(r[c.Target])
}

func (r reservations) reserve(t domain.Target, amount decimal.Decimal) {
	r[t] = r[t].Add(amount)
}

type valueTest func(p domain.Payment, c Candidate, r reservations) bool

// obligationValue requires the target's face value to equal the payment and
// enough unreserved balance to absorb it.
func obligationValue(p domain.Payment, c Candidate, r reservations) bool {
	return c.Amount.Equal(p.Amount) && r.available(c).GreaterThanOrEqual(p.Amount)
}

// custodyValue requires the payment to equal the leg's full remaining balance.
func custodyValue(p domain.Payment, c Candidate, r reservations) bool {
	return r.available(c).Equal(p.Amount)
}

// ValueMatches reports whether a payment still satisfies the value rule of a
// candidate outside any run, as checked when a suggestion is confirmed.
func ValueMatches(p domain.Payment, c Candidate) bool {
	if c.Direction != p.Direction {
		return false
	}
	if c.Target.Kind == domain.TargetCustody {
		return custodyValue(p, c, nil)
	}
	return obligationValue(p, c, nil)
}

type scored struct {
	candidate Candidate
	evidence  NameEvidence
}

// Match runs one reconciliation pass.
func Match(payments []domain.Payment, pool Pool, opts Options) Result {
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = DefaultMaxSuggestions
	}

	ordered := make([]domain.Payment, len(payments))
	copy(ordered, payments)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		return ordered[i].ID < ordered[j].ID
	})

	reserved := make(reservations)
	var res Result
	for _, p := range ordered {
		best, ok := bestMatch(p, pool.Obligations, reserved, obligationValue)
		if !ok {
			best, ok = bestMatch(p, pool.Custodies, reserved, custodyValue)
		}
		if ok {
			reserved.reserve(best.candidate.Target, p.Amount)
			res.Matches = append(res.Matches, domain.ReconciliationMatch{
				PaymentID: p.ID,
				Target:    best.candidate.Target,
				Amount:    p.Amount,
				Evidence: domain.Evidence{
					FullName:    best.evidence.FullName,
					SharedWords: best.evidence.SharedWords,
				},
			})
			continue
		}

		candidates := suggest(p, pool, reserved, opts.MaxSuggestions)
		if len(candidates) == 0 {
			res.Unmatched = append(res.Unmatched, p.ID)
			continue
		}
		res.Suggestions = append(res.Suggestions, domain.ReconciliationSuggestion{
			PaymentID:  p.ID,
			Candidates: candidates,
		})
	}
	return res
}

func bestMatch(p domain.Payment, candidates []Candidate, r reservations, value valueTest) (scored, bool) {
	var hits []scored
	for _, c := range candidates {
		if c.Direction != p.Direction || !value(p, c, r) {
			continue
		}
		ev := Compare(p.Memo, c.Name, c.Aliases...)
		if !ev.Sufficient() {
			continue
		}
		hits = append(hits, scored{candidate: c, evidence: ev})
	}
	if len(hits) == 0 {
		return scored{}, false
	}
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.evidence.FullName != b.evidence.FullName {
			return a.evidence.FullName
		}
		if len(a.evidence.SharedWords) != len(b.evidence.SharedWords) {
			return len(a.evidence.SharedWords) > len(b.evidence.SharedWords)
		}
		if due := compareDue(a.candidate.DueDate, b.candidate.DueDate); due != 0 {
			return due < 0
		}
		return lessTarget(a.candidate.Target, b.candidate.Target)
	})
	return hits[0], true
}

// suggest lists value-only candidates, ranked by name similarity and then by
// how close the due date is to the payment date.
func suggest(p domain.Payment, pool Pool, r reservations, limit int) []domain.SuggestionCandidate {
	type ranked struct {
		c      Candidate
		shared int
		dist   time.Duration
	}
	var list []ranked
	add := func(candidates []Candidate, value valueTest) {
		for _, c := range candidates {
			if c.Direction != p.Direction || !value(p, c, r) {
				continue
			}
			dist := time.Duration(1<<63 - 1)
			if c.DueDate != nil {
				dist = c.DueDate.Sub(p.Date)
				if dist < 0 {
					dist = -dist
				}
			}
			list = append(list, ranked{c: c, shared: len(SharedWords(p.Memo, c.names()...)), dist: dist})
		}
	}
	add(pool.Obligations, obligationValue)
	add(pool.Custodies, custodyValue)

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].shared != list[j].shared {
			return list[i].shared > list[j].shared
		}
		if list[i].dist != list[j].dist {
			return list[i].dist < list[j].dist
		}
		return lessTarget(list[i].c.Target, list[j].c.Target)
	})
	if len(list) > limit {
		list = list[:limit]
	}

	out := make([]domain.SuggestionCandidate, 0, len(list))
	for _, it := range list {
		out = append(out, domain.SuggestionCandidate{
			Target:      it.c.Target,
			Name:        it.c.Name,
			Amount:      it.c.Amount,
			DueDate:     it.c.DueDate,
			SharedWords: it.shared,
		})
	}
	return out
}

func compareDue(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case b.Before(*a):
		return 1
	}
	return 0
}

func lessTarget(a, b domain.Target) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.ID < b.ID
}
