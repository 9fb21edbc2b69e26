// Package storage has the durable key-value store backing the wallet
// engine. Collections are stored as JSON under fixed keys; a write
// either lands entirely or not at all.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cashewlabs/cashew/cashu"
	"github.com/cashewlabs/cashew/cashu/nuts/nut04"
	"github.com/cashewlabs/cashew/cashu/nuts/nut06"
)

// Persisted keys. Every value is a JSON-serialized collection or scalar.
const (
	KeyProofs           = "PROOFS"
	KeyMints            = "MINTS"
	KeyActiveMint       = "ACTIVE_MINT"
	KeyActiveUnit       = "ACTIVE_UNIT"
	KeyInvoices         = "INVOICES"
	KeyTransactions     = "TRANSACTIONS"
	KeyWalletId         = "WALLET_ID"
	KeyPrivateKeySigner = "PRIVATEKEY_SIGNER"
	KeySignerType       = "SIGNER_TYPE"
)

// ErrUnavailable is returned when the underlying device storage
// cannot be read or written.
var ErrUnavailable = errors.New("wallet storage unavailable")

// DB is the raw persisted key-value contract. Get returns nil with no
// error for an absent key. Implementations must never partially write.
type DB interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Close() error
}

type Mint struct {
	URL   string          `json:"url"`
	Alias string          `json:"alias"`
	Units []string        `json:"units"`
	Info  *nut06.MintInfo `json:"info,omitempty"`
}

type Invoice struct {
	Bolt11      string      `json:"bolt11"`
	QuoteId     string      `json:"quote_id"`
	Amount      uint64      `json:"amount"`
	Mint        string      `json:"mint_url"`
	Unit        string      `json:"unit"`
	State       nut04.State `json:"state"`
	PaymentHash string      `json:"payment_hash,omitempty"`
	CreatedAt   int64       `json:"created_at"`
	Expiry      int64       `json:"expiry,omitempty"`
}

type Direction string

const (
	In  Direction = "in"
	Out Direction = "out"
)

// Transaction is a retrospective history record. It never drives
// balance computation, that comes from the proof set.
type Transaction struct {
	Direction Direction `json:"direction"`
	Amount    uint64    `json:"amount"`
	Unit      string    `json:"unit"`
	Mint      string    `json:"mint_url"`
	State     string    `json:"state"`
	Timestamp int64     `json:"timestamp"`
	QuoteId   string    `json:"quote_id,omitempty"`
}

func getJSON[T any](db DB, key string) (T, error) {
	var v T
	data, err := db.Get(key)
	if err != nil {
		return v, err
	}
	if data == nil {
		return v, nil
	}
	// an unreadable value is data loss, report it instead of
	// defaulting to an empty collection
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("corrupted value for key %s: %v", key, err)
	}
	return v, nil
}

func putJSON(db DB, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return db.Set(key, data)
}

func GetProofs(db DB) (cashu.Proofs, error) {
	return getJSON[cashu.Proofs](db, KeyProofs)
}

func PutProofs(db DB, proofs cashu.Proofs) error {
	return putJSON(db, KeyProofs, proofs)
}

func GetMints(db DB) ([]Mint, error) {
	return getJSON[[]Mint](db, KeyMints)
}

func PutMints(db DB, mints []Mint) error {
	return putJSON(db, KeyMints, mints)
}

func GetInvoices(db DB) ([]Invoice, error) {
	return getJSON[[]Invoice](db, KeyInvoices)
}

func PutInvoices(db DB, invoices []Invoice) error {
	return putJSON(db, KeyInvoices, invoices)
}

func GetTransactions(db DB) ([]Transaction, error) {
	return getJSON[[]Transaction](db, KeyTransactions)
}

func PutTransactions(db DB, transactions []Transaction) error {
	return putJSON(db, KeyTransactions, transactions)
}

func GetString(db DB, key string) (string, error) {
	data, err := db.Get(key)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func PutString(db DB, key, value string) error {
	return db.Set(key, []byte(value))
}
