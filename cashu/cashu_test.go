package cashu

import (
	"reflect"
	"testing"
)

const testMint = "http://localhost:3338"

func testProofs() Proofs {
	return Proofs{
		{
			Amount: 2,
			Id:     "00b3e89101cc0ec3",
			Secret: "11e932dc8645669eb65305114a40fef80147393aa4cd8e01c254ebdd7efa4f62",
			C:      "03c820e12087bc49d9878e74908fc912359523e5c01086bb0bfe6d1e279e2d268c",
			Mint:   testMint,
			Unit:   Sat,
		},
		{
			Amount: 8,
			Id:     "00b3e89101cc0ec3",
			Secret: "ac45fddb4dfb70467353e7e5e7c1de031fe784a3fff0c213267010676d1cbae8",
			C:      "03dbe6457e275a8b131b97134613fe053b48d93e315a75e92541f673f6e0fcc194",
			Mint:   testMint,
			Unit:   Sat,
		},
	}
}

func TestTokenV4RoundTrip(t *testing.T) {
	proofs := testProofs()

	token, err := NewTokenV4(proofs, testMint, Sat)
	if err != nil {
		t.Fatalf("NewTokenV4: %v", err)
	}

	serialized, err := token.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if serialized[:6] != "cashuB" {
		t.Errorf("expected 'cashuB' prefix but got '%v' instead", serialized[:6])
	}

	decoded, err := DecodeToken(serialized)
	if err != nil {
		t.Fatalf("DecodeToken: %v", err)
	}

	if decoded.Mint() != testMint {
		t.Errorf("expected '%v' but got '%v' instead", testMint, decoded.Mint())
	}
	if decoded.Unit() != Sat {
		t.Errorf("expected '%v' but got '%v' instead", Sat, decoded.Unit())
	}
	if decoded.Amount() != proofs.Amount() {
		t.Errorf("expected '%v' but got '%v' instead", proofs.Amount(), decoded.Amount())
	}
	if !reflect.DeepEqual(decoded.Proofs(), proofs) {
		t.Errorf("expected '%v' but got '%v' instead", proofs, decoded.Proofs())
	}
}

func TestTokenV3RoundTrip(t *testing.T) {
	proofs := testProofs()

	token := NewTokenV3(proofs, testMint, Sat)
	serialized, err := token.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if serialized[:6] != "cashuA" {
		t.Errorf("expected 'cashuA' prefix but got '%v' instead", serialized[:6])
	}

	decoded, err := DecodeToken(serialized)
	if err != nil {
		t.Fatalf("DecodeToken: %v", err)
	}

	if decoded.Mint() != testMint {
		t.Errorf("expected '%v' but got '%v' instead", testMint, decoded.Mint())
	}
	if !reflect.DeepEqual(decoded.Proofs(), proofs) {
		t.Errorf("expected '%v' but got '%v' instead", proofs, decoded.Proofs())
	}
}

func TestDecodeTokenErrors(t *testing.T) {
	tests := []string{
		"",
		"cashu",
		"cashuC1234",
		"cashuAnotbase64!!!",
		"cashuBnotvalidcbor",
	}

	for _, tokenstr := range tests {
		if _, err := DecodeToken(tokenstr); err == nil {
			t.Errorf("expected error decoding '%v' but got nil", tokenstr)
		}
	}
}

func TestAmountSplit(t *testing.T) {
	tests := []struct {
		amount   uint64
		expected []uint64
	}{
		{13, []uint64{1, 4, 8}},
		{64, []uint64{64}},
		{1000, []uint64{8, 32, 64, 128, 256, 512}},
		{0, []uint64{}},
	}

	for _, test := range tests {
		split := AmountSplit(test.amount)
		if !reflect.DeepEqual(split, test.expected) {
			t.Errorf("expected '%v' but got '%v' instead", test.expected, split)
		}
	}
}
