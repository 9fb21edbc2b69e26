// Package wallet implements the local ecash wallet engine: it tracks
// proofs received from one or more mints, drives the mint-quote
// lifecycle, selects proofs for spends and keeps a reconciled
// transaction history. All mint interaction goes through the
// MintClient facade; all durable state goes through storage.DB.
package wallet

import (
	"fmt"
	"sync"
	"time"

	"github.com/cashewlabs/cashew/cashu"
	"github.com/cashewlabs/cashew/wallet/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultTimeout = 30 * time.Second

type Config struct {
	WalletPath string
	Client     MintClient
	// signer generated on first run if none is persisted
	SignerType SignerType
	Logger     *zerolog.Logger
}

type Wallet struct {
	db     storage.DB
	client MintClient
	logger zerolog.Logger

	walletId string

	// guards read-modify-write cycles on persisted collections
	mu sync.Mutex

	// per-mint spend serialization: select-then-remove is a single
	// critical section so two spends cannot pick overlapping proofs
	lockMu    sync.Mutex
	mintLocks map[string]*sync.Mutex
}

func InitStorage(path string) (storage.DB, error) {
	return storage.InitBolt(path)
}

func LoadWallet(config Config) (*Wallet, error) {
	db, err := InitStorage(config.WalletPath)
	if err != nil {
		return nil, fmt.Errorf("InitStorage: %v", err)
	}
	return NewWallet(db, config)
}

// NewWallet sets up a wallet on an already opened store. Used directly
// by tests and hosts that manage their own storage backend.
func NewWallet(db storage.DB, config Config) (*Wallet, error) {
	client := config.Client
	if client == nil {
		client = NewHTTPClient(defaultTimeout)
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	wallet := &Wallet{
		db:        db,
		client:    client,
		logger:    logger,
		mintLocks: make(map[string]*sync.Mutex),
	}

	walletId, err := storage.GetString(db, storage.KeyWalletId)
	if err != nil {
		return nil, err
	}
	if walletId == "" {
		walletId = uuid.NewString()
		if err := storage.PutString(db, storage.KeyWalletId, walletId); err != nil {
			return nil, fmt.Errorf("error setting up wallet: %v", err)
		}
	}
	wallet.walletId = walletId

	if err := wallet.ensureSigner(config.SignerType); err != nil {
		return nil, fmt.Errorf("error setting up signer: %v", err)
	}

	return wallet, nil
}

func (w *Wallet) ID() string {
	return w.walletId
}

func (w *Wallet) Close() error {
	return w.db.Close()
}

func (w *Wallet) mintLock(mintURL string) *sync.Mutex {
	w.lockMu.Lock()
	defer w.lockMu.Unlock()

	lock, ok := w.mintLocks[mintURL]
	if !ok {
		lock = &sync.Mutex{}
		w.mintLocks[mintURL] = lock
	}
	return lock
}

// Balance returns the locally known balance for the mint and unit.
// It does not contact the mint; callers wanting a reconciled number
// run SweepSpent first.
func (w *Wallet) Balance(mintURL, unit string) (uint64, error) {
	proofs, err := storage.GetProofs(w.db)
	if err != nil {
		return 0, err
	}
	return UnitBalance(unit, mintURL, proofs), nil
}

// Balances returns the balance per unit merged across all configured
// mints.
func (w *Wallet) Balances() (map[string]uint64, error) {
	mints, err := storage.GetMints(w.db)
	if err != nil {
		return nil, err
	}
	proofs, err := storage.GetProofs(w.db)
	if err != nil {
		return nil, err
	}
	return Balances(mints, proofs), nil
}

// History returns the reconciled transaction ledger, most recent
// first. Empty mintURL or unit means no filter.
func (w *Wallet) History(mintURL, unit string) ([]storage.Transaction, error) {
	invoices, err := storage.GetInvoices(w.db)
	if err != nil {
		return nil, err
	}
	transactions, err := storage.GetTransactions(w.db)
	if err != nil {
		return nil, err
	}
	return ReconcileHistory(invoices, transactions, mintURL, unit), nil
}

func tagProofs(proofs cashu.Proofs, mintURL, unit string) cashu.Proofs {
	for i := range proofs {
		proofs[i].Mint = mintURL
		proofs[i].Unit = unit
	}
	return proofs
}
