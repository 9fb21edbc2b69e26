package wallet

import (
	"testing"

	"github.com/cashewlabs/cashew/cashu/nuts/nut04"
	"github.com/cashewlabs/cashew/wallet/storage"
)

func TestReconcileHistory(t *testing.T) {
	mint := "http://localhost:3338"

	invoices := []storage.Invoice{
		// never paid, excluded
		{Bolt11: "lnbc1", QuoteId: "q1", Amount: 10, Mint: mint, Unit: "sat", State: nut04.Unpaid, CreatedAt: 100},
		// paid but no transaction record yet, derived entry expected
		{Bolt11: "lnbc2", QuoteId: "q2", Amount: 20, Mint: mint, Unit: "sat", State: nut04.Paid, CreatedAt: 200},
		// issued with a transaction record, record wins
		{Bolt11: "lnbc3", QuoteId: "q3", Amount: 30, Mint: mint, Unit: "sat", State: nut04.Issued, CreatedAt: 300},
		// never fully created, excluded
		{Bolt11: "", QuoteId: "q4", Amount: 40, Mint: mint, Unit: "sat", State: nut04.Issued, CreatedAt: 400},
	}
	transactions := []storage.Transaction{
		{Direction: storage.In, Amount: 30, Unit: "sat", Mint: mint, State: "ISSUED", Timestamp: 300, QuoteId: "q3"},
		{Direction: storage.Out, Amount: 5, Unit: "sat", Mint: mint, State: "SENT", Timestamp: 500},
	}

	history := ReconcileHistory(invoices, transactions, "", "")

	expectedLen := 3
	if len(history) != expectedLen {
		t.Fatalf("expected '%v' entries but got '%v' instead", expectedLen, len(history))
	}

	// most recent first
	for i := 0; i < len(history)-1; i++ {
		if history[i].Timestamp < history[i+1].Timestamp {
			t.Fatalf("history not sorted most-recent-first: %v", history)
		}
	}

	if history[0].Direction != storage.Out || history[0].Amount != 5 {
		t.Errorf("expected out entry of 5 first but got '%v'", history[0])
	}

	quoteIds := make(map[string]int)
	for _, tx := range history {
		if tx.QuoteId != "" {
			quoteIds[tx.QuoteId]++
		}
	}
	if quoteIds["q3"] != 1 {
		t.Errorf("expected one entry for quote q3 but got '%v'", quoteIds["q3"])
	}
	if quoteIds["q2"] != 1 {
		t.Errorf("expected one entry for quote q2 but got '%v'", quoteIds["q2"])
	}
	if quoteIds["q1"] != 0 || quoteIds["q4"] != 0 {
		t.Error("unpaid or partially created invoices should not appear in history")
	}
}

func TestReconcileHistoryFilters(t *testing.T) {
	mintA := "http://mint-a:3338"
	mintB := "http://mint-b:3338"

	transactions := []storage.Transaction{
		{Direction: storage.Out, Amount: 1, Unit: "sat", Mint: mintA, State: "SENT", Timestamp: 1},
		{Direction: storage.Out, Amount: 2, Unit: "usd", Mint: mintA, State: "SENT", Timestamp: 2},
		{Direction: storage.Out, Amount: 3, Unit: "sat", Mint: mintB, State: "SENT", Timestamp: 3},
	}

	byMint := ReconcileHistory(nil, transactions, mintA, "")
	if len(byMint) != 2 {
		t.Errorf("expected '%v' entries but got '%v' instead", 2, len(byMint))
	}

	byMintAndUnit := ReconcileHistory(nil, transactions, mintA, "sat")
	if len(byMintAndUnit) != 1 {
		t.Errorf("expected '%v' entries but got '%v' instead", 1, len(byMintAndUnit))
	}
	if byMintAndUnit[0].Amount != 1 {
		t.Errorf("expected '%v' but got '%v' instead", 1, byMintAndUnit[0].Amount)
	}
}
