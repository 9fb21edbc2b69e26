package wallet

import (
	"context"
	"fmt"

	"github.com/cashewlabs/cashew/cashu"
	"github.com/cashewlabs/cashew/wallet/storage"
)

// AddProofs appends proofs to the store. No dedup by id is performed,
// the mint is the authority on duplicate acceptance, but arriving
// proofs are never dropped silently.
func (w *Wallet) AddProofs(proofs cashu.Proofs) error {
	if len(proofs) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.addProofsLocked(proofs)
}

func (w *Wallet) addProofsLocked(proofs cashu.Proofs) error {
	stored, err := storage.GetProofs(w.db)
	if err != nil {
		return err
	}
	stored = append(stored, proofs...)
	return storage.PutProofs(w.db, stored)
}

// RemoveProofs deletes the proofs with the given secrets, recording
// the spend transaction in the same critical section. If removal
// fails the spend is not committed and no transaction is recorded.
func (w *Wallet) RemoveProofs(secrets []string, tx *storage.Transaction) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.removeProofsLocked(secrets, tx)
}

func (w *Wallet) removeProofsLocked(secrets []string, tx *storage.Transaction) error {
	stored, err := storage.GetProofs(w.db)
	if err != nil {
		return err
	}

	toRemove := make(map[string]bool, len(secrets))
	for _, secret := range secrets {
		toRemove[secret] = true
	}

	remaining := make(cashu.Proofs, 0, len(stored))
	for _, proof := range stored {
		if !toRemove[proof.Secret] {
			remaining = append(remaining, proof)
		}
	}

	if err := storage.PutProofs(w.db, remaining); err != nil {
		return err
	}

	if tx != nil {
		return w.appendTransactionLocked(*tx)
	}
	return nil
}

func (w *Wallet) appendTransactionLocked(tx storage.Transaction) error {
	transactions, err := storage.GetTransactions(w.db)
	if err != nil {
		return err
	}
	transactions = append(transactions, tx)
	return storage.PutTransactions(w.db, transactions)
}

// UnspentProofs returns the locally held proofs for the mint and unit,
// in store order.
func (w *Wallet) UnspentProofs(mintURL, unit string) (cashu.Proofs, error) {
	stored, err := storage.GetProofs(w.db)
	if err != nil {
		return nil, err
	}

	proofs := make(cashu.Proofs, 0)
	for _, proof := range stored {
		if proof.Mint == mintURL && (unit == "" || proof.Unit == unit) {
			proofs = append(proofs, proof)
		}
	}
	return proofs, nil
}

// SweepSpent asks the mint which locally held proofs are already
// spent, removes them and returns the removed set. The local store is
// an optimistic cache: the same seed restored elsewhere can spend
// proofs without this wallet's participation, so balances are only
// trustworthy after a sweep. A failed check leaves the store
// untouched.
func (w *Wallet) SweepSpent(ctx context.Context, mintURL string) (cashu.Proofs, error) {
	proofs, err := w.UnspentProofs(mintURL, "")
	if err != nil {
		return nil, err
	}
	if len(proofs) == 0 {
		return nil, nil
	}

	spentSecrets, err := w.client.CheckProofsSpent(ctx, mintURL, proofs)
	if err != nil {
		return nil, fmt.Errorf("error checking proof state with mint: %w", err)
	}
	if len(spentSecrets) == 0 {
		return nil, nil
	}

	spent := make(map[string]bool, len(spentSecrets))
	for _, secret := range spentSecrets {
		spent[secret] = true
	}

	removed := make(cashu.Proofs, 0, len(spentSecrets))
	for _, proof := range proofs {
		if spent[proof.Secret] {
			removed = append(removed, proof)
		}
	}

	if err := w.RemoveProofs(spentSecrets, nil); err != nil {
		return nil, err
	}

	w.logger.Debug().Str("mint", mintURL).Int("spent", len(removed)).Msg("swept spent proofs")
	return removed, nil
}
