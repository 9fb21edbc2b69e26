// Package cashu contains the core structs of the Cashu protocol
// used by the wallet engine: proofs and the serialized token formats.
package cashu

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

const (
	Sat = "sat"

	Bolt11Method = "bolt11"
)

var (
	ErrInvalidTokenV3 = errors.New("invalid V3 token")
	ErrInvalidTokenV4 = errors.New("invalid V4 token")
	ErrInvalidUnit    = errors.New("invalid unit")
)

// Proof is a bearer token redeemable at exactly one mint.
// See https://github.com/cashubtc/nuts/blob/main/00.md#proof
type Proof struct {
	Amount uint64 `json:"amount"`
	Id     string `json:"id"`
	Secret string `json:"secret"`
	C      string `json:"C"`
	Mint   string `json:"mint_url,omitempty"`
	Unit   string `json:"unit,omitempty"`
}

type Proofs []Proof

// Amount returns the total amount from the array of Proof
func (proofs Proofs) Amount() uint64 {
	var totalAmount uint64 = 0
	for _, proof := range proofs {
		totalAmount += proof.Amount
	}
	return totalAmount
}

// Secrets returns the secret of every proof in the set,
// in the set's order.
func (proofs Proofs) Secrets() []string {
	secrets := make([]string, len(proofs))
	for i, proof := range proofs {
		secrets[i] = proof.Secret
	}
	return secrets
}

// Cashu token. See https://github.com/cashubtc/nuts/blob/main/00.md#token-format
type Token interface {
	Proofs() Proofs
	Mint() string
	Unit() string
	Amount() uint64
	Serialize() (string, error)
}

func DecodeToken(tokenstr string) (Token, error) {
	if len(tokenstr) < 6 {
		return nil, errors.New("token too short")
	}
	token, err := DecodeTokenV4(tokenstr)
	if err != nil {
		// if err, try decoding as V3
		tokenV3, err := DecodeTokenV3(tokenstr)
		if err != nil {
			return nil, fmt.Errorf("invalid token: %v", err)
		}
		return tokenV3, nil
	}
	return token, nil
}

type TokenV3 struct {
	Token   []TokenV3Proof `json:"token"`
	UnitStr string         `json:"unit"`
	Memo    string         `json:"memo,omitempty"`
}

type TokenV3Proof struct {
	Mint   string    `json:"mint"`
	Proofs []ProofV3 `json:"proofs"`
}

type ProofV3 struct {
	Amount uint64 `json:"amount"`
	Id     string `json:"id"`
	Secret string `json:"secret"`
	C      string `json:"C"`
}

func NewTokenV3(proofs Proofs, mint, unit string) TokenV3 {
	proofsV3 := make([]ProofV3, len(proofs))
	for i, proof := range proofs {
		proofsV3[i] = ProofV3{
			Amount: proof.Amount,
			Id:     proof.Id,
			Secret: proof.Secret,
			C:      proof.C,
		}
	}
	tokenProof := TokenV3Proof{Mint: mint, Proofs: proofsV3}
	return TokenV3{Token: []TokenV3Proof{tokenProof}, UnitStr: unit}
}

func DecodeTokenV3(tokenstr string) (*TokenV3, error) {
	prefixVersion := tokenstr[:6]
	base64Token := tokenstr[6:]

	if prefixVersion != "cashuA" {
		return nil, ErrInvalidTokenV3
	}

	tokenBytes, err := base64.URLEncoding.DecodeString(base64Token)
	if err != nil {
		tokenBytes, err = base64.RawURLEncoding.DecodeString(base64Token)
		if err != nil {
			return nil, fmt.Errorf("error decoding token: %v", err)
		}
	}

	var token TokenV3
	err = json.Unmarshal(tokenBytes, &token)
	if err != nil {
		return nil, fmt.Errorf("error unmarshaling token: %v", err)
	}
	if len(token.Token) == 0 {
		return nil, ErrInvalidTokenV3
	}

	return &token, nil
}

func (t TokenV3) Proofs() Proofs {
	proofs := make(Proofs, 0)
	for _, tokenProof := range t.Token {
		for _, proofV3 := range tokenProof.Proofs {
			proofs = append(proofs, Proof{
				Amount: proofV3.Amount,
				Id:     proofV3.Id,
				Secret: proofV3.Secret,
				C:      proofV3.C,
				Mint:   tokenProof.Mint,
				Unit:   t.UnitStr,
			})
		}
	}
	return proofs
}

func (t TokenV3) Mint() string {
	return t.Token[0].Mint
}

func (t TokenV3) Unit() string {
	return t.UnitStr
}

func (t TokenV3) Amount() uint64 {
	var totalAmount uint64 = 0
	for _, tokenProof := range t.Token {
		for _, proof := range tokenProof.Proofs {
			totalAmount += proof.Amount
		}
	}
	return totalAmount
}

func (t TokenV3) Serialize() (string, error) {
	jsonBytes, err := json.Marshal(t)
	if err != nil {
		return "", err
	}

	token := "cashuA" + base64.URLEncoding.EncodeToString(jsonBytes)
	return token, nil
}

type TokenV4 struct {
	TokenProofs []TokenV4Proof `json:"t"`
	Memo        string         `json:"d,omitempty"`
	MintURL     string         `json:"m"`
	UnitStr     string         `json:"u"`
}

type TokenV4Proof struct {
	Id     []byte    `json:"i"`
	Proofs []ProofV4 `json:"p"`
}

type ProofV4 struct {
	Amount uint64 `json:"a"`
	Secret string `json:"s"`
	C      []byte `json:"c"`
}

func NewTokenV4(proofs Proofs, mint, unit string) (TokenV4, error) {
	proofsMap := make(map[string][]ProofV4)
	for _, proof := range proofs {
		C, err := hex.DecodeString(proof.C)
		if err != nil {
			return TokenV4{}, fmt.Errorf("invalid C: %v", err)
		}
		proofV4 := ProofV4{
			Amount: proof.Amount,
			Secret: proof.Secret,
			C:      C,
		}
		proofsMap[proof.Id] = append(proofsMap[proof.Id], proofV4)
	}

	proofsV4 := make([]TokenV4Proof, len(proofsMap))
	i := 0
	for k, v := range proofsMap {
		keysetIdBytes, err := hex.DecodeString(k)
		if err != nil {
			return TokenV4{}, fmt.Errorf("invalid keyset id: %v", err)
		}
		proofsV4[i] = TokenV4Proof{Id: keysetIdBytes, Proofs: v}
		i++
	}

	return TokenV4{MintURL: mint, UnitStr: unit, TokenProofs: proofsV4}, nil
}

func DecodeTokenV4(tokenstr string) (*TokenV4, error) {
	prefixVersion := tokenstr[:6]
	base64Token := tokenstr[6:]
	if prefixVersion != "cashuB" {
		return nil, ErrInvalidTokenV4
	}

	tokenBytes, err := base64.URLEncoding.DecodeString(base64Token)
	if err != nil {
		tokenBytes, err = base64.RawURLEncoding.DecodeString(base64Token)
		if err != nil {
			return nil, fmt.Errorf("error decoding token: %v", err)
		}
	}

	var tokenV4 TokenV4
	err = cbor.Unmarshal(tokenBytes, &tokenV4)
	if err != nil {
		return nil, fmt.Errorf("cbor.Unmarshal: %v", err)
	}

	return &tokenV4, nil
}

func (t TokenV4) Proofs() Proofs {
	proofs := make(Proofs, 0)
	for _, tokenV4Proof := range t.TokenProofs {
		keysetId := hex.EncodeToString(tokenV4Proof.Id)
		for _, proofV4 := range tokenV4Proof.Proofs {
			proofs = append(proofs, Proof{
				Amount: proofV4.Amount,
				Id:     keysetId,
				Secret: proofV4.Secret,
				C:      hex.EncodeToString(proofV4.C),
				Mint:   t.MintURL,
				Unit:   t.UnitStr,
			})
		}
	}
	return proofs
}

func (t TokenV4) Mint() string {
	return t.MintURL
}

func (t TokenV4) Unit() string {
	return t.UnitStr
}

func (t TokenV4) Amount() uint64 {
	var totalAmount uint64
	for _, proof := range t.Proofs() {
		totalAmount += proof.Amount
	}
	return totalAmount
}

func (t TokenV4) Serialize() (string, error) {
	cborData, err := cbor.Marshal(t)
	if err != nil {
		return "", err
	}

	token := "cashuB" + base64.RawURLEncoding.EncodeToString(cborData)
	return token, nil
}

type CashuErrCode int

// Error represents an error returned by the mint
type Error struct {
	Detail string       `json:"detail"`
	Code   CashuErrCode `json:"code"`
}

func BuildCashuError(detail string, code CashuErrCode) *Error {
	return &Error{Detail: detail, Code: code}
}

func (e Error) Error() string {
	return e.Detail
}

const (
	StandardErrCode CashuErrCode = 10000

	ProofAlreadyUsedErrCode        CashuErrCode = 11001
	InsufficientProofAmountErrCode CashuErrCode = 11002
	UnitErrCode                    CashuErrCode = 11005

	MintQuoteRequestNotPaidErrCode CashuErrCode = 20001
	MintQuoteAlreadyIssuedErrCode  CashuErrCode = 20002
	MeltQuotePendingErrCode        CashuErrCode = 20005
	MeltQuoteAlreadyPaidErrCode    CashuErrCode = 20006
)

func GenerateRandomQuoteId() (string, error) {
	randomBytes := make([]byte, 32)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(randomBytes)
	return hex.EncodeToString(hash[:]), nil
}

// Given an amount, it returns list of amounts e.g 13 -> [1, 4, 8]
// that can be used to build blinded messages or split operations.
func AmountSplit(amount uint64) []uint64 {
	rv := make([]uint64, 0)
	for pos := 0; amount > 0; pos++ {
		if amount&1 == 1 {
			rv = append(rv, 1<<pos)
		}
		amount >>= 1
	}
	return rv
}
