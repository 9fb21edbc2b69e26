package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cashewlabs/cashew/cashu"
	"github.com/cashewlabs/cashew/cashu/nuts/nut03"
	"github.com/cashewlabs/cashew/cashu/nuts/nut04"
	"github.com/cashewlabs/cashew/cashu/nuts/nut05"
	"github.com/cashewlabs/cashew/cashu/nuts/nut06"
	"github.com/cashewlabs/cashew/cashu/nuts/nut07"
)

// MintClient is the facade over a mint the wallet engine talks to.
// Blind-signature handling happens behind this boundary; the engine
// only ever sees finished proofs.
type MintClient interface {
	GetMintInfo(ctx context.Context, mintURL string) (*nut06.MintInfo, error)

	RequestMintQuote(ctx context.Context, mintURL string, amount uint64, unit string) (*nut04.PostMintQuoteBolt11Response, error)
	MintQuoteState(ctx context.Context, mintURL, quoteId string) (*nut04.PostMintQuoteBolt11Response, error)
	MintProofs(ctx context.Context, mintURL, quoteId string, amount uint64) (cashu.Proofs, error)

	// CheckProofsSpent returns the secrets of the subset of proofs the
	// mint reports as spent.
	CheckProofsSpent(ctx context.Context, mintURL string, proofs cashu.Proofs) ([]string, error)

	// Swap exchanges proofs for a new set split so that send sums to
	// exactly amount, with the remainder returned as change.
	Swap(ctx context.Context, mintURL string, proofs cashu.Proofs, amount uint64) (send cashu.Proofs, change cashu.Proofs, err error)

	RequestMeltQuote(ctx context.Context, mintURL, request, unit string) (*nut05.PostMeltQuoteBolt11Response, error)
	Melt(ctx context.Context, mintURL, quoteId string, proofs cashu.Proofs) (*nut05.PostMeltQuoteBolt11Response, error)
}

// HTTPClient implements MintClient against the mint's REST API.
type HTTPClient struct {
	client *http.Client
}

func NewHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

func (c *HTTPClient) GetMintInfo(ctx context.Context, mintURL string) (*nut06.MintInfo, error) {
	var mintInfo nut06.MintInfo
	if err := c.get(ctx, mintURL+"/v1/info", &mintInfo); err != nil {
		return nil, err
	}
	return &mintInfo, nil
}

func (c *HTTPClient) RequestMintQuote(ctx context.Context, mintURL string, amount uint64, unit string) (
	*nut04.PostMintQuoteBolt11Response, error) {
	request := nut04.PostMintQuoteBolt11Request{Amount: amount, Unit: unit}

	var mintQuoteResponse nut04.PostMintQuoteBolt11Response
	if err := c.post(ctx, mintURL+"/v1/mint/quote/bolt11", request, &mintQuoteResponse); err != nil {
		return nil, err
	}
	return &mintQuoteResponse, nil
}

func (c *HTTPClient) MintQuoteState(ctx context.Context, mintURL, quoteId string) (
	*nut04.PostMintQuoteBolt11Response, error) {
	var mintQuoteResponse nut04.PostMintQuoteBolt11Response
	if err := c.get(ctx, mintURL+"/v1/mint/quote/bolt11/"+quoteId, &mintQuoteResponse); err != nil {
		return nil, err
	}
	return &mintQuoteResponse, nil
}

func (c *HTTPClient) MintProofs(ctx context.Context, mintURL, quoteId string, amount uint64) (cashu.Proofs, error) {
	request := nut04.PostMintBolt11Request{Quote: quoteId, Amount: amount}

	var mintResponse nut04.PostMintBolt11Response
	if err := c.post(ctx, mintURL+"/v1/mint/bolt11", request, &mintResponse); err != nil {
		return nil, err
	}
	return mintResponse.Proofs, nil
}

func (c *HTTPClient) CheckProofsSpent(ctx context.Context, mintURL string, proofs cashu.Proofs) ([]string, error) {
	request := nut07.PostCheckStateRequest{Secrets: proofs.Secrets()}

	var stateResponse nut07.PostCheckStateResponse
	if err := c.post(ctx, mintURL+"/v1/checkstate", request, &stateResponse); err != nil {
		return nil, err
	}

	spent := make([]string, 0)
	for _, proofState := range stateResponse.States {
		if proofState.State == nut07.Spent {
			spent = append(spent, proofState.Secret)
		}
	}
	return spent, nil
}

func (c *HTTPClient) Swap(ctx context.Context, mintURL string, proofs cashu.Proofs, amount uint64) (
	cashu.Proofs, cashu.Proofs, error) {
	request := nut03.PostSwapRequest{Inputs: proofs, Amount: amount}

	var swapResponse nut03.PostSwapResponse
	if err := c.post(ctx, mintURL+"/v1/swap", request, &swapResponse); err != nil {
		return nil, nil, err
	}
	return swapResponse.Send, swapResponse.Change, nil
}

func (c *HTTPClient) RequestMeltQuote(ctx context.Context, mintURL, request, unit string) (
	*nut05.PostMeltQuoteBolt11Response, error) {
	meltQuoteRequest := nut05.PostMeltQuoteBolt11Request{Request: request, Unit: unit}

	var meltQuoteResponse nut05.PostMeltQuoteBolt11Response
	if err := c.post(ctx, mintURL+"/v1/melt/quote/bolt11", meltQuoteRequest, &meltQuoteResponse); err != nil {
		return nil, err
	}
	return &meltQuoteResponse, nil
}

func (c *HTTPClient) Melt(ctx context.Context, mintURL, quoteId string, proofs cashu.Proofs) (
	*nut05.PostMeltQuoteBolt11Response, error) {
	meltRequest := nut05.PostMeltBolt11Request{Quote: quoteId, Inputs: proofs}

	var meltResponse nut05.PostMeltQuoteBolt11Response
	if err := c.post(ctx, mintURL+"/v1/melt/bolt11", meltRequest, &meltResponse); err != nil {
		return nil, err
	}
	return &meltResponse, nil
}

func (c *HTTPClient) get(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMintUnreachable, err)
	}
	defer resp.Body.Close()

	return parse(resp, v)
}

func (c *HTTPClient) post(ctx context.Context, url string, request, v any) error {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("json.Marshal: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMintUnreachable, err)
	}
	defer resp.Body.Close()

	return parse(resp, v)
}

func parse(response *http.Response, v any) error {
	if response.StatusCode == 400 {
		var errResponse cashu.Error
		err := json.NewDecoder(response.Body).Decode(&errResponse)
		if err != nil {
			return fmt.Errorf("could not decode error response from mint: %v", err)
		}
		return errResponse
	}

	if response.StatusCode != 200 {
		body, err := io.ReadAll(response.Body)
		if err != nil {
			return err
		}
		return fmt.Errorf("%s", body)
	}

	if err := json.NewDecoder(response.Body).Decode(v); err != nil {
		return fmt.Errorf("error reading response from mint: %v", err)
	}
	return nil
}
