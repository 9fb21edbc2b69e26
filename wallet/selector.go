package wallet

import "github.com/cashewlabs/cashew/cashu"

// SelectProofsForAmount picks proofs covering target by walking the
// set from the end, in store order, accumulating until the running sum
// reaches target. Greedy, may over-select; any surplus is expected to
// come back as change from a swap.
func SelectProofsForAmount(proofs cashu.Proofs, target uint64) (cashu.Proofs, error) {
	if proofs.Amount() < target {
		return nil, ErrInsufficientFunds
	}

	selected := make(cashu.Proofs, 0)
	var currentAmount uint64 = 0
	for i := len(proofs) - 1; i >= 0 && currentAmount < target; i-- {
		selected = append(selected, proofs[i])
		currentAmount += proofs[i].Amount
	}

	return selected, nil
}
