package domain

import "time"

// InstallmentShare is one slice of a purchase split across billing periods.
type InstallmentShare struct {
	Number   int
	Total    int
	Amount   int64
	PostedAt time.Time
}

// SplitInstallments splits total into n shares dated one month apart.
//
// Each share is total/n using integer division and the last share absorbs the
// remainder, so the shares always sum to total. The sign of total is kept on
// every share.
func SplitInstallments(total int64, n int, start time.Time) ([]InstallmentShare, error) {
	if n < 1 {
		return nil, ErrInvalidInstallments
	}

	per := total / int64(n)
	shares := make([]InstallmentShare, n)

	var allocated int64
	for i := range n {
		amount := per
		if i == n-1 {
			amount = total - allocated
		}
		allocated += amount

		shares[i] = InstallmentShare{
			Number:   i + 1,
			Total:    n,
			Amount:   amount,
			PostedAt: AddMonths(start, i),
		}
	}

	return shares, nil
}
