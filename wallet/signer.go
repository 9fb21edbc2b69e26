package wallet

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/cashewlabs/cashew/wallet/storage"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/tyler-smith/go-bip39"
)

type SignerType string

const (
	SignerSeed       SignerType = "SEED"
	SignerPrivateKey SignerType = "PRIVATEKEY"
)

// SecretProvider gates retrieval of the persisted signer material.
// Hosts back it with whatever auth the platform offers (biometrics,
// secure enclave); the wallet core only sees Unlock.
type SecretProvider interface {
	// Unlock returns the signer secret or ErrAuthDenied.
	Unlock(ctx context.Context) ([]byte, error)
}

// ensureSigner generates and persists signer material on first run.
func (w *Wallet) ensureSigner(signerType SignerType) error {
	storedType, err := storage.GetString(w.db, storage.KeySignerType)
	if err != nil {
		return err
	}
	if storedType != "" {
		return nil
	}

	if signerType == "" {
		signerType = SignerSeed
	}

	var secret []byte
	switch signerType {
	case SignerSeed:
		entropy, err := bip39.NewEntropy(128)
		if err != nil {
			return err
		}
		mnemonic, err := bip39.NewMnemonic(entropy)
		if err != nil {
			return err
		}
		secret = bip39.NewSeed(mnemonic, "")
	case SignerPrivateKey:
		privateKey, err := secp256k1.GeneratePrivateKey()
		if err != nil {
			return err
		}
		secret = privateKey.Serialize()
	default:
		return fmt.Errorf("unknown signer type: %s", signerType)
	}

	if err := storage.PutString(w.db, storage.KeyPrivateKeySigner, hex.EncodeToString(secret)); err != nil {
		return err
	}
	return storage.PutString(w.db, storage.KeySignerType, string(signerType))
}

func (w *Wallet) SignerType() (SignerType, error) {
	storedType, err := storage.GetString(w.db, storage.KeySignerType)
	if err != nil {
		return "", err
	}
	return SignerType(storedType), nil
}

// SecretProvider returns the wallet's default provider, which reads
// the signer material straight from storage with no auth gate. Hosts
// with platform auth wrap or replace it.
func (w *Wallet) SecretProvider() SecretProvider {
	return &storeSecretProvider{db: w.db}
}

type storeSecretProvider struct {
	db storage.DB
}

func (p *storeSecretProvider) Unlock(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hexSecret, err := storage.GetString(p.db, storage.KeyPrivateKeySigner)
	if err != nil {
		return nil, err
	}
	if hexSecret == "" {
		return nil, ErrAuthDenied
	}

	secret, err := hex.DecodeString(hexSecret)
	if err != nil {
		// do not echo the stored value
		return nil, fmt.Errorf("corrupted signer material")
	}
	return secret, nil
}
