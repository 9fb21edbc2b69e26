package wallet

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/cashewlabs/cashew/cashu"
	"github.com/cashewlabs/cashew/cashu/nuts/nut04"
	"github.com/cashewlabs/cashew/cashu/nuts/nut05"
	"github.com/cashewlabs/cashew/cashu/nuts/nut06"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/lightningnetwork/lnd/zpay32"
	decodepay "github.com/nbd-wtf/ln-decodepay"
)

const fakePreimage = "0000000000000000"

// FakeMint is an in-memory MintClient for tests and development. It
// issues fake bolt11 invoices, tracks quote and proof state, and never
// touches the network.
type FakeMint struct {
	mu sync.Mutex

	keysetId string
	quotes   map[string]*fakeQuote
	spent    map[string]bool

	// when set, MintProofs fails with this error. Simulates the
	// network dying between payment and issuance.
	mintErr error
}

type fakeQuote struct {
	request string
	amount  uint64
	unit    string
	state   nut04.State
	minted  bool
}

func NewFakeMint() *FakeMint {
	return &FakeMint{
		keysetId: "00b3e89101cc0ec3",
		quotes:   make(map[string]*fakeQuote),
		spent:    make(map[string]bool),
	}
}

// MarkPaid settles the fake invoice behind a quote.
func (fm *FakeMint) MarkPaid(quoteId string) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	if quote, ok := fm.quotes[quoteId]; ok && quote.state == nut04.Unpaid {
		quote.state = nut04.Paid
	}
}

// MarkSpent flags proofs as spent at the mint, as if another wallet
// session had redeemed them.
func (fm *FakeMint) MarkSpent(secrets []string) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	for _, secret := range secrets {
		fm.spent[secret] = true
	}
}

// FailMints makes subsequent MintProofs calls fail with err; pass nil
// to restore normal issuance.
func (fm *FakeMint) FailMints(err error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.mintErr = err
}

func (fm *FakeMint) GetMintInfo(ctx context.Context, mintURL string) (*nut06.MintInfo, error) {
	return &nut06.MintInfo{
		Name:        "fake mint",
		Description: "in-memory mint for tests",
		Nuts: nut06.Nuts{
			Nut04: nut06.NutSetting{
				Methods: []nut06.MethodSetting{{Method: cashu.Bolt11Method, Unit: cashu.Sat}},
			},
			Nut05: nut06.NutSetting{
				Methods: []nut06.MethodSetting{{Method: cashu.Bolt11Method, Unit: cashu.Sat}},
			},
			Nut07: nut06.Supported{Supported: true},
		},
	}, nil
}

func (fm *FakeMint) RequestMintQuote(ctx context.Context, mintURL string, amount uint64, unit string) (
	*nut04.PostMintQuoteBolt11Response, error) {
	request, _, _, err := createFakeInvoice(amount)
	if err != nil {
		return nil, err
	}
	quoteId, err := cashu.GenerateRandomQuoteId()
	if err != nil {
		return nil, err
	}

	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.quotes[quoteId] = &fakeQuote{request: request, amount: amount, unit: unit, state: nut04.Unpaid}

	return &nut04.PostMintQuoteBolt11Response{
		Quote:   quoteId,
		Request: request,
		State:   nut04.Unpaid,
		Expiry:  time.Now().Add(time.Hour).Unix(),
	}, nil
}

func (fm *FakeMint) MintQuoteState(ctx context.Context, mintURL, quoteId string) (
	*nut04.PostMintQuoteBolt11Response, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	quote, ok := fm.quotes[quoteId]
	if !ok {
		return nil, errors.New("quote does not exist")
	}
	return &nut04.PostMintQuoteBolt11Response{
		Quote:   quoteId,
		Request: quote.request,
		State:   quote.state,
	}, nil
}

func (fm *FakeMint) MintProofs(ctx context.Context, mintURL, quoteId string, amount uint64) (cashu.Proofs, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	if fm.mintErr != nil {
		return nil, fm.mintErr
	}

	quote, ok := fm.quotes[quoteId]
	if !ok {
		return nil, errors.New("quote does not exist")
	}
	if quote.state == nut04.Unpaid {
		return nil, cashu.BuildCashuError("quote request has not been paid", cashu.MintQuoteRequestNotPaidErrCode)
	}
	if quote.minted {
		return nil, cashu.BuildCashuError("quote already issued", cashu.MintQuoteAlreadyIssuedErrCode)
	}

	proofs, err := fm.newProofs(amount)
	if err != nil {
		return nil, err
	}
	quote.minted = true
	quote.state = nut04.Issued
	return proofs, nil
}

func (fm *FakeMint) CheckProofsSpent(ctx context.Context, mintURL string, proofs cashu.Proofs) ([]string, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	spent := make([]string, 0)
	for _, proof := range proofs {
		if fm.spent[proof.Secret] {
			spent = append(spent, proof.Secret)
		}
	}
	return spent, nil
}

func (fm *FakeMint) Swap(ctx context.Context, mintURL string, proofs cashu.Proofs, amount uint64) (
	cashu.Proofs, cashu.Proofs, error) {
	total := proofs.Amount()
	if total < amount {
		return nil, nil, cashu.BuildCashuError(
			"amount of input proofs is below amount needed for transaction",
			cashu.InsufficientProofAmountErrCode)
	}

	fm.mu.Lock()
	defer fm.mu.Unlock()

	for _, proof := range proofs {
		if fm.spent[proof.Secret] {
			return nil, nil, cashu.BuildCashuError("proof already used", cashu.ProofAlreadyUsedErrCode)
		}
	}
	for _, proof := range proofs {
		fm.spent[proof.Secret] = true
	}

	send, err := fm.newProofs(amount)
	if err != nil {
		return nil, nil, err
	}
	change, err := fm.newProofs(total - amount)
	if err != nil {
		return nil, nil, err
	}
	return send, change, nil
}

func (fm *FakeMint) RequestMeltQuote(ctx context.Context, mintURL, request, unit string) (
	*nut05.PostMeltQuoteBolt11Response, error) {
	bolt11, err := decodepay.Decodepay(request)
	if err != nil {
		return nil, err
	}
	quoteId, err := cashu.GenerateRandomQuoteId()
	if err != nil {
		return nil, err
	}

	return &nut05.PostMeltQuoteBolt11Response{
		Quote:      quoteId,
		Amount:     uint64(bolt11.MSatoshi) / 1000,
		FeeReserve: 0,
		State:      nut05.Unpaid,
		Expiry:     time.Now().Add(time.Hour).Unix(),
	}, nil
}

func (fm *FakeMint) Melt(ctx context.Context, mintURL, quoteId string, proofs cashu.Proofs) (
	*nut05.PostMeltQuoteBolt11Response, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	for _, proof := range proofs {
		if fm.spent[proof.Secret] {
			return nil, cashu.BuildCashuError("proof already used", cashu.ProofAlreadyUsedErrCode)
		}
	}
	for _, proof := range proofs {
		fm.spent[proof.Secret] = true
	}

	return &nut05.PostMeltQuoteBolt11Response{
		Quote:    quoteId,
		Amount:   proofs.Amount(),
		State:    nut05.Paid,
		Preimage: fakePreimage,
	}, nil
}

func (fm *FakeMint) newProofs(amount uint64) (cashu.Proofs, error) {
	amounts := cashu.AmountSplit(amount)
	proofs := make(cashu.Proofs, len(amounts))
	for i, amt := range amounts {
		var secretBytes [32]byte
		if _, err := rand.Read(secretBytes[:]); err != nil {
			return nil, err
		}
		C := sha256.Sum256(secretBytes[:])
		proofs[i] = cashu.Proof{
			Amount: amt,
			Id:     fm.keysetId,
			Secret: hex.EncodeToString(secretBytes[:]),
			C:      hex.EncodeToString(C[:]),
		}
	}
	return proofs, nil
}

func createFakeInvoice(amount uint64) (string, string, string, error) {
	var random [32]byte
	_, err := rand.Read(random[:])
	if err != nil {
		return "", "", "", err
	}
	preimage := hex.EncodeToString(random[:])
	paymentHash := sha256.Sum256(random[:])
	hash := hex.EncodeToString(paymentHash[:])

	invoice, err := zpay32.NewInvoice(
		&chaincfg.SigNetParams,
		paymentHash,
		time.Now(),
		zpay32.Amount(lnwire.MilliSatoshi(amount*1000)),
		zpay32.Description("test"),
	)
	if err != nil {
		return "", "", "", err
	}

	invoiceStr, err := invoice.Encode(zpay32.MessageSigner{
		SignCompact: func(msg []byte) ([]byte, error) {
			key, err := secp256k1.GeneratePrivateKey()
			if err != nil {
				return []byte{}, err
			}
			return ecdsa.SignCompact(key, msg, true), nil
		},
	})
	if err != nil {
		return "", "", "", err
	}

	return invoiceStr, preimage, hash, nil
}
