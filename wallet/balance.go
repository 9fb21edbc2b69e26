package wallet

import (
	"github.com/cashewlabs/cashew/cashu"
	"github.com/cashewlabs/cashew/wallet/storage"
)

// UnitBalance sums the amounts of the given proofs belonging to the
// mint and unit. Pure fold, no I/O; callers wanting a balance the mint
// agrees with run SweepSpent first.
func UnitBalance(unit, mintURL string, proofs cashu.Proofs) uint64 {
	var balance uint64 = 0
	for _, proof := range proofs {
		if proof.Mint == mintURL && proof.Unit == unit {
			balance += proof.Amount
		}
	}
	return balance
}

// Balances folds proofs across every configured mint and merges the
// result by unit. Units are not fungible across mints; the merged view
// is for display only.
func Balances(mints []storage.Mint, proofs cashu.Proofs) map[string]uint64 {
	balances := make(map[string]uint64)
	for _, mint := range mints {
		for _, unit := range mint.Units {
			balances[unit] += UnitBalance(unit, mint.URL, proofs)
		}
	}
	return balances
}
