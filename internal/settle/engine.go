// Package settle computes pairwise and aggregate debt balances for a shared
// expense list. The engine is pure and stateless: given a snapshot of
// expenses and participants it always produces the same balances, and it
// keeps no memory between calls.
package settle

// PairBalance is the net balance between two participants. Net is positive
// when the counterpart owes the queried user, negative when the queried user
// owes the counterpart.
type PairBalance struct {
	Net Money `json:"net"`
}

// Settlement aggregates one participant's position against everyone else in
// the list.
type Settlement struct {
	TotalPaid       Money                  `json:"total_paid"`
	TotalOwed       Money                  `json:"total_owed"`
	TotalOwedToUser Money                  `json:"total_owed_to_user"`
	PerUser         map[string]PairBalance `json:"per_user"`
}

// BalanceBetween computes the net balance between userID and otherID across
// the given expenses. Only expenses paid by one of the two are considered;
// each contributes the non-payer's share of the amount, rounded per expense.
// evenSplit is the fraction applied to legacy expenses and is derived from
// the full list membership by SettleUser, not per pair.
func BalanceBetween(userID, otherID string, expenses []Expense, evenSplit float64, currency string) (PairBalance, error) {
	owedToUser := Zero(currency)
	owedByUser := Zero(currency)

	for _, e := range expenses {
		switch e.PayerID {
		case userID:
			share, err := e.Amount.MulFraction(e.shareOf(otherID, evenSplit))
			if err != nil {
				return PairBalance{}, err
			}
			if owedToUser, err = owedToUser.Add(share); err != nil {
				return PairBalance{}, err
			}
		case otherID:
			share, err := e.Amount.MulFraction(e.shareOf(userID, evenSplit))
			if err != nil {
				return PairBalance{}, err
			}
			if owedByUser, err = owedByUser.Add(share); err != nil {
				return PairBalance{}, err
			}
		}
	}

	net, err := owedToUser.Sub(owedByUser)
	if err != nil {
		return PairBalance{}, err
	}
	return PairBalance{Net: net}, nil
}

// SettleUser computes the aggregate settlement for userID against every other
// participant. The legacy even-split fraction is 1/N where N is the size of
// the distinct participant set including userID itself. With one or zero
// participants there is no one to owe and the result is all zeroes.
func SettleUser(userID string, participants []string, expenses []Expense, currency string) (Settlement, error) {
	distinct := make(map[string]struct{}, len(participants)+1)
	distinct[userID] = struct{}{}
	others := make([]string, 0, len(participants))
	for _, p := range participants {
		if _, seen := distinct[p]; seen {
			continue
		}
		distinct[p] = struct{}{}
		others = append(others, p)
	}

	result := Settlement{
		TotalPaid:       Zero(currency),
		TotalOwed:       Zero(currency),
		TotalOwedToUser: Zero(currency),
		PerUser:         make(map[string]PairBalance, len(others)),
	}

	for _, e := range expenses {
		if e.PayerID != userID {
			continue
		}
		total, err := result.TotalPaid.Add(e.Amount)
		if err != nil {
			return Settlement{}, err
		}
		result.TotalPaid = total
	}

	if len(others) == 0 {
		return result, nil
	}

	evenSplit := 1 / float64(len(distinct))

	for _, other := range others {
		balance, err := BalanceBetween(userID, other, expenses, evenSplit, currency)
		if err != nil {
			return Settlement{}, err
		}
		result.PerUser[other] = balance

		if balance.Net.IsNegative() {
			owed, err := result.TotalOwed.Add(balance.Net.Abs())
			if err != nil {
				return Settlement{}, err
			}
			result.TotalOwed = owed
			continue
		}
		owedToUser, err := result.TotalOwedToUser.Add(balance.Net)
		if err != nil {
			return Settlement{}, err
		}
		result.TotalOwedToUser = owedToUser
	}

	return result, nil
}
