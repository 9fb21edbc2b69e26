package wallet

import (
	"testing"

	"github.com/cashewlabs/cashew/cashu"
	"github.com/cashewlabs/cashew/wallet/storage"
)

func TestUnitBalance(t *testing.T) {
	mintA := "http://mint-a:3338"
	mintB := "http://mint-b:3338"

	proofs := cashu.Proofs{
		{Amount: 1, Mint: mintA, Unit: "sat"},
		{Amount: 2, Mint: mintA, Unit: "sat"},
		{Amount: 4, Mint: mintA, Unit: "usd"},
		{Amount: 8, Mint: mintB, Unit: "sat"},
	}

	tests := []struct {
		unit     string
		mint     string
		expected uint64
	}{
		{"sat", mintA, 3},
		{"usd", mintA, 4},
		{"sat", mintB, 8},
		{"usd", mintB, 0},
		{"sat", "http://unknown:3338", 0},
	}

	for _, test := range tests {
		balance := UnitBalance(test.unit, test.mint, proofs)
		if balance != test.expected {
			t.Errorf("expected '%v' but got '%v' instead", test.expected, balance)
		}
	}
}

func TestBalancesAcrossMints(t *testing.T) {
	mintA := "http://mint-a:3338"
	mintB := "http://mint-b:3338"

	mints := []storage.Mint{
		{URL: mintA, Units: []string{"sat", "usd"}},
		{URL: mintB, Units: []string{"sat"}},
	}
	proofs := cashu.Proofs{
		{Amount: 1, Mint: mintA, Unit: "sat"},
		{Amount: 4, Mint: mintA, Unit: "usd"},
		{Amount: 8, Mint: mintB, Unit: "sat"},
	}

	balances := Balances(mints, proofs)
	if balances["sat"] != 9 {
		t.Errorf("expected '%v' but got '%v' instead", 9, balances["sat"])
	}
	if balances["usd"] != 4 {
		t.Errorf("expected '%v' but got '%v' instead", 4, balances["usd"])
	}
}
