package wallet

import "errors"

var (
	// mint registry
	ErrDuplicateMint   = errors.New("mint already added")
	ErrMintNotFound    = errors.New("mint not found")
	ErrMintUnreachable = errors.New("could not reach mint")

	// invoice lifecycle
	ErrQuoteNotFound  = errors.New("mint quote not found")
	ErrIssuanceFailed = errors.New("could not mint ecash for paid quote")

	// proof selection
	ErrInsufficientFunds = errors.New("not enough funds")

	// secret provider
	ErrAuthDenied = errors.New("secret unlock denied")
)
