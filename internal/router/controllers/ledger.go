package controllers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/qubicnetwork/go-universe/internal/ledger"
	"github.com/qubicnetwork/go-universe/pkg/errors"
	"github.com/qubicnetwork/go-universe/pkg/universe"
)

// LedgerController defines the HTTP handlers relaying contract-call requests
// into the ledger service. These endpoints exist for operators and local
// simulation; in production, contracts drive the ledger through the
// node-internal invocation machinery.
type LedgerController struct {
	ledger ledger.Ledger
}

// NewLedgerController creates a new LedgerController.
func NewLedgerController(l ledger.Ledger) *LedgerController {
	return &LedgerController{ledger: l}
}

type callerPayload struct {
	ContractIndex    uint16      `json:"contractIndex"`
	Invocator        universe.ID `json:"invocator"`
	InvocationReward int64       `json:"invocationReward"`
}

func (p callerPayload) info() ledger.CallerInfo {
	return ledger.CallerInfo{
		ContractIndex:    p.ContractIndex,
		Invocator:        p.Invocator,
		InvocationReward: p.InvocationReward,
	}
}

func decodeBody(rw http.ResponseWriter, r *http.Request, into interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		rw.WriteHeader(http.StatusBadRequest)
		log.Ctx(r.Context()).
			Error().
			Err(err).
			Msg("invalid request body")

		_ = json.NewEncoder(rw).Encode(errors.ServiceError{Message: "Invalid request body"})
		return false
	}
	return true
}

// IssueAsset handles the POST /ledger/issue call.
func (c *LedgerController) IssueAsset(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rw.Header().Set("Content-type", "application/json")

	var body struct {
		Caller    callerPayload      `json:"caller"`
		AssetName universe.AssetName `json:"assetName"`
		Issuer    universe.ID        `json:"issuer"`
		Decimals  int8               `json:"decimals"`
		Shares    int64              `json:"shares"`
		Unit      universe.AssetUnit `json:"unit"`
	}
	if !decodeBody(rw, r, &body) {
		return
	}

	shares, err := c.ledger.IssueAsset(ctx, ledger.IssueAssetRequest{
		Caller:    body.Caller.info(),
		AssetName: body.AssetName,
		Issuer:    body.Issuer,
		Decimals:  body.Decimals,
		Shares:    body.Shares,
		Unit:      body.Unit,
	})
	if err != nil {
		rw.WriteHeader(http.StatusBadRequest)
		log.Ctx(ctx).
			Error().
			Err(err).
			Msg("issuing asset")

		_ = json.NewEncoder(rw).Encode(errors.ServiceError{Message: "Issuing asset"})
		return
	}

	rw.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(rw).Encode(struct {
		Shares int64 `json:"shares"`
	}{Shares: shares})
}

// Transfer handles the POST /ledger/transfer call.
func (c *LedgerController) Transfer(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rw.Header().Set("Content-type", "application/json")

	var body struct {
		Caller    callerPayload      `json:"caller"`
		AssetName universe.AssetName `json:"assetName"`
		Issuer    universe.ID        `json:"issuer"`
		Owner     universe.ID        `json:"owner"`
		Possessor universe.ID        `json:"possessor"`
		Shares    int64              `json:"shares"`
		NewHolder universe.ID        `json:"newHolder"`
	}
	if !decodeBody(rw, r, &body) {
		return
	}

	remaining, err := c.ledger.TransferShareOwnershipAndPossession(ctx, ledger.TransferRequest{
		Caller:    body.Caller.info(),
		AssetName: body.AssetName,
		Issuer:    body.Issuer,
		Owner:     body.Owner,
		Possessor: body.Possessor,
		Shares:    body.Shares,
		NewHolder: body.NewHolder,
	})
	if err != nil {
		rw.WriteHeader(http.StatusBadRequest)
		log.Ctx(ctx).
			Error().
			Err(err).
			Msg("transferring shares")

		_ = json.NewEncoder(rw).Encode(errors.ServiceError{Message: "Transferring shares"})
		return
	}

	rw.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(rw).Encode(struct {
		Result int64 `json:"result"`
	}{Result: remaining})
}

type rightsPayload struct {
	Caller    callerPayload      `json:"caller"`
	AssetName universe.AssetName `json:"assetName"`
	Issuer    universe.ID        `json:"issuer"`
	Owner     universe.ID        `json:"owner"`
	Possessor universe.ID        `json:"possessor"`
	Shares    int64              `json:"shares"`

	OwnershipManagingContract  uint16 `json:"ownershipManagingContract"`
	PossessionManagingContract uint16 `json:"possessionManagingContract"`
}

func (p rightsPayload) request() ledger.RightsRequest {
	return ledger.RightsRequest{
		Caller:    p.Caller.info(),
		AssetName: p.AssetName,
		Issuer:    p.Issuer,
		Owner:     p.Owner,
		Possessor: p.Possessor,
		Shares:    p.Shares,

		OwnershipManagingContract:  p.OwnershipManagingContract,
		PossessionManagingContract: p.PossessionManagingContract,
	}
}

// AcquireShares handles the POST /ledger/acquire call.
func (c *LedgerController) AcquireShares(rw http.ResponseWriter, r *http.Request) {
	c.rightsTransfer(rw, r, c.ledger.AcquireShares, "acquiring shares")
}

// ReleaseShares handles the POST /ledger/release call.
func (c *LedgerController) ReleaseShares(rw http.ResponseWriter, r *http.Request) {
	c.rightsTransfer(rw, r, c.ledger.ReleaseShares, "releasing shares")
}

func (c *LedgerController) rightsTransfer(
	rw http.ResponseWriter,
	r *http.Request,
	call func(ctx context.Context, req ledger.RightsRequest) (bool, error),
	action string,
) {
	ctx := r.Context()
	rw.Header().Set("Content-type", "application/json")

	var body rightsPayload
	if !decodeBody(rw, r, &body) {
		return
	}

	ok, err := call(ctx, body.request())
	if err != nil {
		rw.WriteHeader(http.StatusBadRequest)
		log.Ctx(ctx).
			Error().
			Err(err).
			Str("action", action).
			Msg("management rights transfer")

		_ = json.NewEncoder(rw).Encode(errors.ServiceError{Message: "Management rights transfer"})
		return
	}

	rw.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(rw).Encode(struct {
		OK bool `json:"ok"`
	}{OK: ok})
}

// DistributeDividends handles the POST /ledger/dividends call.
func (c *LedgerController) DistributeDividends(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rw.Header().Set("Content-type", "application/json")

	var body struct {
		Caller         callerPayload `json:"caller"`
		AmountPerShare int64         `json:"amountPerShare"`
	}
	if !decodeBody(rw, r, &body) {
		return
	}

	ok, err := c.ledger.DistributeDividends(ctx, ledger.DividendsRequest{
		Caller:         body.Caller.info(),
		AmountPerShare: body.AmountPerShare,
	})
	if err != nil {
		rw.WriteHeader(http.StatusBadRequest)
		log.Ctx(ctx).
			Error().
			Err(err).
			Msg("distributing dividends")

		_ = json.NewEncoder(rw).Encode(errors.ServiceError{Message: "Distributing dividends"})
		return
	}

	rw.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(rw).Encode(struct {
		OK bool `json:"ok"`
	}{OK: ok})
}
