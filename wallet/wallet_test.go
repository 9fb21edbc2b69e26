package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/cashewlabs/cashew/cashu/nuts/nut04"
	"github.com/cashewlabs/cashew/cashu/nuts/nut05"
	"github.com/cashewlabs/cashew/wallet/storage"
)

const testMintURL = "http://localhost:3338"

func newTestWallet(t *testing.T, fm *FakeMint) *Wallet {
	t.Helper()

	db, err := storage.InitBolt(t.TempDir())
	if err != nil {
		t.Fatalf("error setting up storage: %v", err)
	}

	w, err := NewWallet(db, Config{Client: fm})
	if err != nil {
		t.Fatalf("error setting up wallet: %v", err)
	}
	t.Cleanup(func() { w.Close() })

	if _, err := w.AddMint(context.Background(), testMintURL, "testmint"); err != nil {
		t.Fatalf("error adding mint: %v", err)
	}
	return w
}

// fundWallet runs the full receive flow: quote, payment, issuance.
func fundWallet(t *testing.T, w *Wallet, fm *FakeMint, amount uint64) {
	t.Helper()
	ctx := context.Background()

	invoice, err := w.RequestMint(ctx, amount, "", "")
	if err != nil {
		t.Fatalf("error requesting mint quote: %v", err)
	}
	fm.MarkPaid(invoice.QuoteId)
	if _, err := w.CheckQuote(ctx, invoice.QuoteId); err != nil {
		t.Fatalf("error minting ecash: %v", err)
	}
}

func TestAddMint(t *testing.T) {
	fm := NewFakeMint()
	w := newTestWallet(t, fm)
	ctx := context.Background()

	// duplicate url
	if _, err := w.AddMint(ctx, testMintURL, "other"); !errors.Is(err, ErrDuplicateMint) {
		t.Errorf("expected '%v' but got '%v' instead", ErrDuplicateMint, err)
	}
	// duplicate alias
	if _, err := w.AddMint(ctx, "http://localhost:3339", "testmint"); !errors.Is(err, ErrDuplicateMint) {
		t.Errorf("expected '%v' but got '%v' instead", ErrDuplicateMint, err)
	}

	// first mint became the active selection
	activeMint, activeUnit, err := w.ActiveSelection()
	if err != nil {
		t.Fatal(err)
	}
	if activeMint != testMintURL {
		t.Errorf("expected '%v' but got '%v' instead", testMintURL, activeMint)
	}
	if activeUnit != "sat" {
		t.Errorf("expected 'sat' but got '%v' instead", activeUnit)
	}

	units, err := w.ListUnits(testMintURL)
	if err != nil {
		t.Fatal(err)
	}
	if len(units) != 1 || units[0] != "sat" {
		t.Errorf("expected units ['sat'] but got '%v' instead", units)
	}

	if err := w.RemoveMint(testMintURL); err != nil {
		t.Fatalf("error removing mint: %v", err)
	}
	if _, err := w.ListUnits(testMintURL); !errors.Is(err, ErrMintNotFound) {
		t.Errorf("expected '%v' but got '%v' instead", ErrMintNotFound, err)
	}
}

func TestMintQuoteLifecycle(t *testing.T) {
	fm := NewFakeMint()
	w := newTestWallet(t, fm)
	ctx := context.Background()

	invoice, err := w.RequestMint(ctx, 1000, "", "")
	if err != nil {
		t.Fatalf("error requesting mint quote: %v", err)
	}
	if invoice.State != nut04.Unpaid {
		t.Errorf("expected '%v' but got '%v' instead", nut04.Unpaid, invoice.State)
	}
	if invoice.Bolt11 == "" {
		t.Error("expected a bolt11 invoice but got empty string")
	}

	// pending receive survives in storage
	stored, err := w.GetInvoice(invoice.QuoteId)
	if err != nil {
		t.Fatal(err)
	}
	if stored == nil || stored.State != nut04.Unpaid {
		t.Fatalf("expected persisted UNPAID invoice but got '%v'", stored)
	}

	// unpaid at the mint, no local change
	checked, err := w.CheckQuote(ctx, invoice.QuoteId)
	if err != nil {
		t.Fatal(err)
	}
	if checked.State != nut04.Unpaid {
		t.Errorf("expected '%v' but got '%v' instead", nut04.Unpaid, checked.State)
	}

	fm.MarkPaid(invoice.QuoteId)

	checked, err = w.CheckQuote(ctx, invoice.QuoteId)
	if err != nil {
		t.Fatal(err)
	}
	if checked.State != nut04.Issued {
		t.Errorf("expected '%v' but got '%v' instead", nut04.Issued, checked.State)
	}

	balance, err := w.Balance(testMintURL, "sat")
	if err != nil {
		t.Fatal(err)
	}
	if balance != 1000 {
		t.Errorf("expected '%v' but got '%v' instead", 1000, balance)
	}

	history, err := w.History("", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 history entry but got '%v'", len(history))
	}
	entry := history[0]
	if entry.Direction != storage.In || entry.Amount != 1000 || entry.State != "ISSUED" {
		t.Errorf("expected in entry of 1000 in state ISSUED but got '%v'", entry)
	}

	// idempotent: a second check cannot double-mint
	if _, err := w.CheckQuote(ctx, invoice.QuoteId); err != nil {
		t.Fatal(err)
	}
	balance, _ = w.Balance(testMintURL, "sat")
	if balance != 1000 {
		t.Errorf("expected '%v' but got '%v' instead", 1000, balance)
	}
}

func TestIssuanceRetry(t *testing.T) {
	fm := NewFakeMint()
	w := newTestWallet(t, fm)
	ctx := context.Background()

	invoice, err := w.RequestMint(ctx, 500, "", "")
	if err != nil {
		t.Fatal(err)
	}
	fm.MarkPaid(invoice.QuoteId)
	fm.FailMints(errors.New("connection reset"))

	checked, err := w.CheckQuote(ctx, invoice.QuoteId)
	if !errors.Is(err, ErrIssuanceFailed) {
		t.Errorf("expected '%v' but got '%v' instead", ErrIssuanceFailed, err)
	}
	// PAID is the recovery checkpoint
	if checked.State != nut04.Paid {
		t.Errorf("expected '%v' but got '%v' instead", nut04.Paid, checked.State)
	}
	balance, _ := w.Balance(testMintURL, "sat")
	if balance != 0 {
		t.Errorf("expected '%v' but got '%v' instead", 0, balance)
	}

	// issuance succeeds on the next check
	fm.FailMints(nil)
	checked, err = w.CheckQuote(ctx, invoice.QuoteId)
	if err != nil {
		t.Fatal(err)
	}
	if checked.State != nut04.Issued {
		t.Errorf("expected '%v' but got '%v' instead", nut04.Issued, checked.State)
	}
	balance, _ = w.Balance(testMintURL, "sat")
	if balance != 500 {
		t.Errorf("expected '%v' but got '%v' instead", 500, balance)
	}
}

func TestSweepSpent(t *testing.T) {
	fm := NewFakeMint()
	w := newTestWallet(t, fm)
	ctx := context.Background()

	fundWallet(t, w, fm, 100)

	proofs, err := w.UnspentProofs(testMintURL, "sat")
	if err != nil {
		t.Fatal(err)
	}
	if len(proofs) == 0 {
		t.Fatal("expected unspent proofs after funding")
	}

	// another session spent one of our proofs
	spentProof := proofs[0]
	fm.MarkSpent([]string{spentProof.Secret})

	removed, err := w.SweepSpent(ctx, testMintURL)
	if err != nil {
		t.Fatalf("error sweeping spent proofs: %v", err)
	}
	if len(removed) != 1 || removed[0].Secret != spentProof.Secret {
		t.Fatalf("expected swept proof '%v' but got '%v'", spentProof.Secret, removed)
	}

	proofs, _ = w.UnspentProofs(testMintURL, "sat")
	for _, proof := range proofs {
		if proof.Secret == spentProof.Secret {
			t.Error("swept proof still reported as unspent")
		}
	}

	balance, _ := w.Balance(testMintURL, "sat")
	if balance != 100-spentProof.Amount {
		t.Errorf("expected '%v' but got '%v' instead", 100-spentProof.Amount, balance)
	}

	// nothing further to sweep
	removed, err = w.SweepSpent(ctx, testMintURL)
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 0 {
		t.Errorf("expected no proofs swept but got '%v'", removed)
	}
}

func TestSendReceive(t *testing.T) {
	fm := NewFakeMint()
	sender := newTestWallet(t, fm)
	receiver := newTestWallet(t, fm)
	ctx := context.Background()

	fundWallet(t, sender, fm, 64)

	token, err := sender.Send(ctx, 21, "", "")
	if err != nil {
		t.Fatalf("error sending: %v", err)
	}

	balance, _ := sender.Balance(testMintURL, "sat")
	if balance != 43 {
		t.Errorf("expected '%v' but got '%v' instead", 43, balance)
	}

	amount, err := receiver.Receive(ctx, token)
	if err != nil {
		t.Fatalf("error receiving: %v", err)
	}
	if amount != 21 {
		t.Errorf("expected '%v' but got '%v' instead", 21, amount)
	}
	balance, _ = receiver.Balance(testMintURL, "sat")
	if balance != 21 {
		t.Errorf("expected '%v' but got '%v' instead", 21, balance)
	}

	history, _ := receiver.History(testMintURL, "sat")
	if len(history) != 1 || history[0].Direction != storage.In || history[0].Amount != 21 {
		t.Errorf("expected one in entry of 21 but got '%v'", history)
	}

	// the token was swapped on receive, claiming it again must fail
	if _, err := receiver.Receive(ctx, token); err == nil {
		t.Error("expected error receiving an already claimed token but got nil")
	}
	balance, _ = receiver.Balance(testMintURL, "sat")
	if balance != 21 {
		t.Errorf("expected '%v' but got '%v' instead", 21, balance)
	}
}

func TestSendInsufficientFunds(t *testing.T) {
	fm := NewFakeMint()
	w := newTestWallet(t, fm)
	ctx := context.Background()

	fundWallet(t, w, fm, 10)

	if _, err := w.Send(ctx, 11, "", ""); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("expected '%v' but got '%v' instead", ErrInsufficientFunds, err)
	}

	// failed send leaves the balance untouched
	balance, _ := w.Balance(testMintURL, "sat")
	if balance != 10 {
		t.Errorf("expected '%v' but got '%v' instead", 10, balance)
	}
}

func TestMelt(t *testing.T) {
	fm := NewFakeMint()
	w := newTestWallet(t, fm)
	ctx := context.Background()

	fundWallet(t, w, fm, 50)

	request, _, _, err := createFakeInvoice(21)
	if err != nil {
		t.Fatal(err)
	}

	meltResponse, err := w.Melt(ctx, request, "", "")
	if err != nil {
		t.Fatalf("error melting: %v", err)
	}
	if meltResponse.State != nut05.Paid {
		t.Errorf("expected '%v' but got '%v' instead", nut05.Paid, meltResponse.State)
	}

	balance, _ := w.Balance(testMintURL, "sat")
	if balance != 29 {
		t.Errorf("expected '%v' but got '%v' instead", 29, balance)
	}

	history, _ := w.History(testMintURL, "sat")
	foundOut := false
	for _, tx := range history {
		if tx.Direction == storage.Out && tx.Amount == 21 && tx.State == "PAID" {
			foundOut = true
		}
	}
	if !foundOut {
		t.Errorf("expected an out entry of 21 in state PAID but got '%v'", history)
	}
}

func TestReceiveInvalidToken(t *testing.T) {
	fm := NewFakeMint()
	w := newTestWallet(t, fm)
	ctx := context.Background()

	if _, err := w.Receive(ctx, "not a cashu token"); err == nil {
		t.Error("expected error receiving malformed token but got nil")
	}

	// rejected before any store mutation
	balance, _ := w.Balance(testMintURL, "sat")
	if balance != 0 {
		t.Errorf("expected '%v' but got '%v' instead", 0, balance)
	}
	history, _ := w.History("", "")
	if len(history) != 0 {
		t.Errorf("expected empty history but got '%v'", history)
	}
}

func TestQuoteNotFound(t *testing.T) {
	fm := NewFakeMint()
	w := newTestWallet(t, fm)

	if _, err := w.CheckQuote(context.Background(), "nonexistent"); !errors.Is(err, ErrQuoteNotFound) {
		t.Errorf("expected '%v' but got '%v' instead", ErrQuoteNotFound, err)
	}
}

func TestSigner(t *testing.T) {
	fm := NewFakeMint()
	w := newTestWallet(t, fm)

	signerType, err := w.SignerType()
	if err != nil {
		t.Fatal(err)
	}
	if signerType != SignerSeed {
		t.Errorf("expected '%v' but got '%v' instead", SignerSeed, signerType)
	}

	secret, err := w.SecretProvider().Unlock(context.Background())
	if err != nil {
		t.Fatalf("error unlocking signer: %v", err)
	}
	// bip39 seeds are 64 bytes
	if len(secret) != 64 {
		t.Errorf("expected 64 byte seed but got '%v' bytes", len(secret))
	}
}

func TestWalletID(t *testing.T) {
	fm := NewFakeMint()

	dir := t.TempDir()
	db, err := storage.InitBolt(dir)
	if err != nil {
		t.Fatal(err)
	}
	w, err := NewWallet(db, Config{Client: fm})
	if err != nil {
		t.Fatal(err)
	}
	id := w.ID()
	if id == "" {
		t.Fatal("expected a wallet id")
	}
	w.Close()

	// id is stable across reloads
	db, err = storage.InitBolt(dir)
	if err != nil {
		t.Fatal(err)
	}
	w, err = NewWallet(db, Config{Client: fm})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if w.ID() != id {
		t.Errorf("expected '%v' but got '%v' instead", id, w.ID())
	}
}
