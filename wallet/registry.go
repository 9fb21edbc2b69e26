package wallet

import (
	"context"
	"fmt"
	"net/url"

	"github.com/cashewlabs/cashew/cashu"
	"github.com/cashewlabs/cashew/wallet/storage"
)

// AddMint registers a new mint. Fails with ErrDuplicateMint if the url
// or alias is already registered (compared case-sensitively). Mint
// info and supported units are fetched from the mint before the entry
// is persisted. The first mint added becomes the active selection.
func (w *Wallet) AddMint(ctx context.Context, mintURL, alias string) (*storage.Mint, error) {
	parsedURL, err := url.Parse(mintURL)
	if err != nil {
		return nil, fmt.Errorf("invalid mint url: %v", err)
	}
	mintURL = parsedURL.String()

	w.mu.Lock()
	defer w.mu.Unlock()

	mints, err := storage.GetMints(w.db)
	if err != nil {
		return nil, err
	}
	for _, mint := range mints {
		if mint.URL == mintURL || (alias != "" && mint.Alias == alias) {
			return nil, ErrDuplicateMint
		}
	}

	mintInfo, err := w.client.GetMintInfo(ctx, mintURL)
	if err != nil {
		return nil, fmt.Errorf("error getting info from mint: %w", err)
	}

	units := mintInfo.Units()
	if len(units) == 0 {
		units = []string{cashu.Sat}
	}

	mint := storage.Mint{URL: mintURL, Alias: alias, Units: units, Info: mintInfo}
	mints = append(mints, mint)
	if err := storage.PutMints(w.db, mints); err != nil {
		return nil, err
	}

	// first mint becomes the default target for new operations
	if len(mints) == 1 {
		if err := storage.PutString(w.db, storage.KeyActiveMint, mintURL); err != nil {
			return nil, err
		}
		if err := storage.PutString(w.db, storage.KeyActiveUnit, units[0]); err != nil {
			return nil, err
		}
	}

	w.logger.Debug().Str("mint", mintURL).Msg("added mint")
	return &mint, nil
}

// RemoveMint drops the mint entry. Proofs belonging to the mint are
// left in the store and stay addressable by url until swept; picking a
// fallback active mint is the caller's decision.
func (w *Wallet) RemoveMint(mintURL string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	mints, err := storage.GetMints(w.db)
	if err != nil {
		return err
	}

	idx := -1
	for i, mint := range mints {
		if mint.URL == mintURL {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrMintNotFound
	}

	mints = append(mints[:idx], mints[idx+1:]...)
	if err := storage.PutMints(w.db, mints); err != nil {
		return err
	}

	w.logger.Debug().Str("mint", mintURL).Msg("removed mint")
	return nil
}

func (w *Wallet) Mints() ([]storage.Mint, error) {
	return storage.GetMints(w.db)
}

func (w *Wallet) ListUnits(mintURL string) ([]string, error) {
	mints, err := storage.GetMints(w.db)
	if err != nil {
		return nil, err
	}
	for _, mint := range mints {
		if mint.URL == mintURL {
			return mint.Units, nil
		}
	}
	return nil, ErrMintNotFound
}

// SetActiveMint points the default mint/unit selection at a
// registered mint. Empty unit picks the mint's first supported unit.
func (w *Wallet) SetActiveMint(mintURL, unit string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	mints, err := storage.GetMints(w.db)
	if err != nil {
		return err
	}

	for _, mint := range mints {
		if mint.URL != mintURL {
			continue
		}
		if unit == "" && len(mint.Units) > 0 {
			unit = mint.Units[0]
		}
		if err := storage.PutString(w.db, storage.KeyActiveMint, mintURL); err != nil {
			return err
		}
		return storage.PutString(w.db, storage.KeyActiveUnit, unit)
	}

	return ErrMintNotFound
}

// ActiveSelection returns the default mint url and unit new operations
// target. Operations accept explicit overrides; this is never
// required.
func (w *Wallet) ActiveSelection() (string, string, error) {
	mintURL, err := storage.GetString(w.db, storage.KeyActiveMint)
	if err != nil {
		return "", "", err
	}
	unit, err := storage.GetString(w.db, storage.KeyActiveUnit)
	if err != nil {
		return "", "", err
	}
	return mintURL, unit, nil
}

// resolveTarget fills empty mint/unit from the active selection.
func (w *Wallet) resolveTarget(mintURL, unit string) (string, string, error) {
	if mintURL != "" && unit != "" {
		return mintURL, unit, nil
	}
	activeMint, activeUnit, err := w.ActiveSelection()
	if err != nil {
		return "", "", err
	}
	if mintURL == "" {
		mintURL = activeMint
	}
	if unit == "" {
		unit = activeUnit
	}
	if mintURL == "" {
		return "", "", ErrMintNotFound
	}
	if unit == "" {
		unit = cashu.Sat
	}
	return mintURL, unit, nil
}
