package wallet

import (
	"errors"
	"reflect"
	"testing"

	"github.com/cashewlabs/cashew/cashu"
)

func TestSelectProofsForAmount(t *testing.T) {
	proofs := cashu.Proofs{
		{Amount: 1, Secret: "s1"},
		{Amount: 2, Secret: "s2"},
		{Amount: 8, Secret: "s3"},
	}

	tests := []struct {
		target   uint64
		expected cashu.Proofs
	}{
		// accumulation starts from the end of the store order
		{5, cashu.Proofs{{Amount: 8, Secret: "s3"}}},
		{8, cashu.Proofs{{Amount: 8, Secret: "s3"}}},
		{9, cashu.Proofs{{Amount: 8, Secret: "s3"}, {Amount: 2, Secret: "s2"}}},
		{11, cashu.Proofs{{Amount: 8, Secret: "s3"}, {Amount: 2, Secret: "s2"}, {Amount: 1, Secret: "s1"}}},
		{0, cashu.Proofs{}},
	}

	for _, test := range tests {
		selected, err := SelectProofsForAmount(proofs, test.target)
		if err != nil {
			t.Fatalf("unexpected error selecting for %v: %v", test.target, err)
		}
		if !reflect.DeepEqual(selected, test.expected) {
			t.Errorf("expected '%v' but got '%v' instead", test.expected, selected)
		}
		if selected.Amount() < test.target {
			t.Errorf("selected amount '%v' below target '%v'", selected.Amount(), test.target)
		}
	}
}

func TestSelectProofsInsufficientFunds(t *testing.T) {
	proofs := cashu.Proofs{
		{Amount: 1, Secret: "s1"},
		{Amount: 2, Secret: "s2"},
	}

	_, err := SelectProofsForAmount(proofs, 4)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("expected '%v' but got '%v' instead", ErrInsufficientFunds, err)
	}

	// exactly the available total is not a failure
	selected, err := SelectProofsForAmount(proofs, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if selected.Amount() != 3 {
		t.Errorf("expected '%v' but got '%v' instead", 3, selected.Amount())
	}

	_, err = SelectProofsForAmount(cashu.Proofs{}, 1)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("expected '%v' but got '%v' instead", ErrInsufficientFunds, err)
	}
}
