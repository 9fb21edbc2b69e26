// Package nut04 contains structs for the mint quote flow as defined
// in [NUT-04]
//
// [NUT-04]: https://github.com/cashubtc/nuts/blob/main/04.md
package nut04

import (
	"encoding/json"

	"github.com/cashewlabs/cashew/cashu"
)

type State int

const (
	Unpaid State = iota
	Paid
	Issued
	Unknown
)

func (state State) String() string {
	switch state {
	case Unpaid:
		return "UNPAID"
	case Paid:
		return "PAID"
	case Issued:
		return "ISSUED"
	default:
		return "unknown"
	}
}

func StringToState(state string) State {
	switch state {
	case "UNPAID":
		return Unpaid
	case "PAID":
		return Paid
	case "ISSUED":
		return Issued
	}
	return Unknown
}

func (state State) MarshalJSON() ([]byte, error) {
	return json.Marshal(state.String())
}

func (state *State) UnmarshalJSON(data []byte) error {
	var stateStr string
	if err := json.Unmarshal(data, &stateStr); err != nil {
		return err
	}
	*state = StringToState(stateStr)
	return nil
}

type PostMintQuoteBolt11Request struct {
	Amount uint64 `json:"amount"`
	Unit   string `json:"unit"`
}

type PostMintQuoteBolt11Response struct {
	Quote   string `json:"quote"`
	Request string `json:"request"`
	State   State  `json:"state"`
	Expiry  int64  `json:"expiry"`
}

type PostMintBolt11Request struct {
	Quote  string `json:"quote"`
	Amount uint64 `json:"amount"`
}

type PostMintBolt11Response struct {
	Proofs cashu.Proofs `json:"signatures"`
}
