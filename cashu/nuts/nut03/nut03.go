// Package nut03 contains structs for the swap operation as defined
// in [NUT-03]
//
// [NUT-03]: https://github.com/cashubtc/nuts/blob/main/03.md
package nut03

import "github.com/cashewlabs/cashew/cashu"

type PostSwapRequest struct {
	Inputs cashu.Proofs `json:"inputs"`
	Amount uint64       `json:"amount"`
}

type PostSwapResponse struct {
	Send   cashu.Proofs `json:"send"`
	Change cashu.Proofs `json:"change"`
}
