package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/cashewlabs/cashew/cashu"
	"github.com/cashewlabs/cashew/cashu/nuts/nut05"
	"github.com/cashewlabs/cashew/wallet/storage"
)

// history states for spend records
const (
	txSent     = "SENT"
	txPaid     = "PAID"
	txReceived = "RECEIVED"
)

// Send selects proofs covering amount, swaps them at the mint for an
// exact-amount set plus change, removes the inputs and returns a
// serialized cashu token. Select-then-remove runs under the per-mint
// lock so concurrent sends cannot consume overlapping proofs.
func (w *Wallet) Send(ctx context.Context, amount uint64, mintURL, unit string) (string, error) {
	mintURL, unit, err := w.resolveTarget(mintURL, unit)
	if err != nil {
		return "", err
	}

	lock := w.mintLock(mintURL)
	lock.Lock()
	defer lock.Unlock()

	proofs, err := w.UnspentProofs(mintURL, unit)
	if err != nil {
		return "", err
	}

	selected, err := SelectProofsForAmount(proofs, amount)
	if err != nil {
		return "", err
	}

	send, change, err := w.client.Swap(ctx, mintURL, selected, amount)
	if err != nil {
		return "", fmt.Errorf("error swapping proofs: %w", err)
	}
	send = tagProofs(send, mintURL, unit)
	change = tagProofs(change, mintURL, unit)

	tx := storage.Transaction{
		Direction: storage.Out,
		Amount:    amount,
		Unit:      unit,
		Mint:      mintURL,
		State:     txSent,
		Timestamp: time.Now().Unix(),
	}
	if err := w.RemoveProofs(selected.Secrets(), &tx); err != nil {
		return "", err
	}
	if err := w.AddProofs(change); err != nil {
		return "", err
	}

	token, err := cashu.NewTokenV4(send, mintURL, unit)
	if err != nil {
		return "", err
	}

	w.logger.Debug().Str("mint", mintURL).Uint64("amount", amount).Msg("created ecash token")
	return token.Serialize()
}

// Receive decodes a cashu token, swaps its proofs at the issuing mint
// for fresh ones owned by this wallet and stores them. A token from an
// unknown mint registers that mint implicitly. Malformed tokens are
// rejected before any store mutation.
func (w *Wallet) Receive(ctx context.Context, tokenStr string) (uint64, error) {
	token, err := cashu.DecodeToken(tokenStr)
	if err != nil {
		return 0, err
	}

	mintURL := token.Mint()
	unit := token.Unit()
	proofs := token.Proofs()
	amount := proofs.Amount()

	if _, err := w.AddMint(ctx, mintURL, ""); err != nil && err != ErrDuplicateMint {
		return 0, err
	}

	// swap the incoming proofs so the sender can no longer spend them
	send, change, err := w.client.Swap(ctx, mintURL, proofs, amount)
	if err != nil {
		return 0, fmt.Errorf("error swapping proofs: %w", err)
	}
	send = tagProofs(send, mintURL, unit)
	change = tagProofs(change, mintURL, unit)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.addProofsLocked(append(send, change...)); err != nil {
		return 0, err
	}
	err = w.appendTransactionLocked(storage.Transaction{
		Direction: storage.In,
		Amount:    amount,
		Unit:      unit,
		Mint:      mintURL,
		State:     txReceived,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		return 0, err
	}

	w.logger.Debug().Str("mint", mintURL).Uint64("amount", amount).Msg("received ecash")
	return amount, nil
}

// Melt pays a bolt11 invoice with ecash. Proofs covering the invoice
// amount plus the mint's fee reserve are selected under the per-mint
// lock and only removed after the mint reports the payment made.
func (w *Wallet) Melt(ctx context.Context, request, mintURL, unit string) (*nut05.PostMeltQuoteBolt11Response, error) {
	mintURL, unit, err := w.resolveTarget(mintURL, unit)
	if err != nil {
		return nil, err
	}

	meltQuote, err := w.client.RequestMeltQuote(ctx, mintURL, request, unit)
	if err != nil {
		return nil, fmt.Errorf("error requesting melt quote: %w", err)
	}
	amountNeeded := meltQuote.Amount + meltQuote.FeeReserve

	lock := w.mintLock(mintURL)
	lock.Lock()
	defer lock.Unlock()

	proofs, err := w.UnspentProofs(mintURL, unit)
	if err != nil {
		return nil, err
	}
	selected, err := SelectProofsForAmount(proofs, amountNeeded)
	if err != nil {
		return nil, err
	}

	// the greedy selection may over-select; swap for the exact amount
	// so the surplus comes back as change instead of being melted away.
	// the exact-amount proofs are held out of the store while the melt
	// is in flight.
	inputs := selected
	heldOut := false
	if selected.Amount() > amountNeeded {
		send, change, err := w.client.Swap(ctx, mintURL, selected, amountNeeded)
		if err != nil {
			return nil, fmt.Errorf("error swapping proofs: %w", err)
		}
		inputs = tagProofs(send, mintURL, unit)
		change = tagProofs(change, mintURL, unit)

		if err := w.RemoveProofs(selected.Secrets(), nil); err != nil {
			return nil, err
		}
		if err := w.AddProofs(change); err != nil {
			return nil, err
		}
		heldOut = true
	}

	meltResponse, err := w.client.Melt(ctx, mintURL, meltQuote.Quote, inputs)
	if err != nil {
		// melt did not happen; held-out proofs go back in the store
		if heldOut {
			if addErr := w.AddProofs(inputs); addErr != nil {
				return nil, addErr
			}
		}
		return nil, fmt.Errorf("error melting proofs: %w", err)
	}

	// only delete proofs after the invoice has been paid
	if meltResponse.State == nut05.Paid {
		tx := storage.Transaction{
			Direction: storage.Out,
			Amount:    meltQuote.Amount,
			Unit:      unit,
			Mint:      mintURL,
			State:     txPaid,
			Timestamp: time.Now().Unix(),
		}
		if err := w.RemoveProofs(inputs.Secrets(), &tx); err != nil {
			return nil, err
		}
		w.logger.Debug().Str("mint", mintURL).Uint64("amount", meltQuote.Amount).Msg("paid invoice")
	} else if heldOut {
		// payment pending or failed; keep the held-out proofs spendable
		// locally, a later sweep reconciles if the mint settles them
		if err := w.AddProofs(inputs); err != nil {
			return nil, err
		}
	}

	return meltResponse, nil
}
