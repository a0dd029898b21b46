package controllers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"github.com/qubicnetwork/go-universe/internal/gateway"
	"github.com/qubicnetwork/go-universe/pkg/errors"
	"github.com/qubicnetwork/go-universe/pkg/universe"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// AssetController defines the HTTP handlers for querying the asset universe.
type AssetController struct {
	gateway gateway.Gateway
}

// NewAssetController creates a new AssetController.
func NewAssetController(g gateway.Gateway) *AssetController {
	return &AssetController{gateway: g}
}

// issuanceFromPath parses the {issuer} and {name} path variables.
func issuanceFromPath(rw http.ResponseWriter, r *http.Request) (universe.AssetIssuanceID, bool) {
	vars := mux.Vars(r)

	var issuer universe.ID
	if err := issuer.UnmarshalText([]byte(vars["issuer"])); err != nil {
		rw.WriteHeader(http.StatusBadRequest)
		log.Ctx(r.Context()).
			Error().
			Err(err).
			Msg("invalid issuer format")

		_ = json.NewEncoder(rw).Encode(errors.ServiceError{Message: "Invalid issuer format"})
		return universe.AssetIssuanceID{}, false
	}

	name, err := universe.PackAssetName(vars["name"])
	if err != nil {
		rw.WriteHeader(http.StatusBadRequest)
		log.Ctx(r.Context()).
			Error().
			Err(err).
			Msg("invalid asset name")

		_ = json.NewEncoder(rw).Encode(errors.ServiceError{Message: "Invalid asset name"})
		return universe.AssetIssuanceID{}, false
	}

	return universe.AssetIssuanceID{Issuer: issuer, AssetName: name}, true
}

// ownershipSelectFromQuery builds an ownership selector from the owner and
// ownerContract query parameters; both are wildcards when absent.
func ownershipSelectFromQuery(rw http.ResponseWriter, r *http.Request) (universe.AssetOwnershipSelect, bool) {
	sel := universe.AssetOwnershipSelect{AnyOwner: true, AnyManagingContract: true}

	if owner := r.URL.Query().Get("owner"); owner != "" {
		sel.AnyOwner = false
		if err := sel.Owner.UnmarshalText([]byte(owner)); err != nil {
			rw.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(rw).Encode(errors.ServiceError{Message: "Invalid owner format"})
			return universe.AssetOwnershipSelect{}, false
		}
	}
	if mc := r.URL.Query().Get("ownerContract"); mc != "" {
		parsed, err := strconv.ParseUint(mc, 10, 16)
		if err != nil {
			rw.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(rw).Encode(errors.ServiceError{Message: "Invalid ownerContract format"})
			return universe.AssetOwnershipSelect{}, false
		}
		sel.AnyManagingContract = false
		sel.ManagingContract = uint16(parsed)
	}
	return sel, true
}

// possessionSelectFromQuery builds a possession selector from the possessor
// and possessorContract query parameters; both are wildcards when absent.
func possessionSelectFromQuery(rw http.ResponseWriter, r *http.Request) (universe.AssetPossessionSelect, bool) {
	sel := universe.AssetPossessionSelect{AnyPossessor: true, AnyManagingContract: true}

	if possessor := r.URL.Query().Get("possessor"); possessor != "" {
		sel.AnyPossessor = false
		if err := sel.Possessor.UnmarshalText([]byte(possessor)); err != nil {
			rw.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(rw).Encode(errors.ServiceError{Message: "Invalid possessor format"})
			return universe.AssetPossessionSelect{}, false
		}
	}
	if mc := r.URL.Query().Get("possessorContract"); mc != "" {
		parsed, err := strconv.ParseUint(mc, 10, 16)
		if err != nil {
			rw.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(rw).Encode(errors.ServiceError{Message: "Invalid possessorContract format"})
			return universe.AssetPossessionSelect{}, false
		}
		sel.AnyManagingContract = false
		sel.ManagingContract = uint16(parsed)
	}
	return sel, true
}

// GetAsset handles the GET /asset/{issuer}/{name} call.
func (c *AssetController) GetAsset(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rw.Header().Set("Content-type", "application/json")

	issuance, ok := issuanceFromPath(rw, r)
	if !ok {
		return
	}

	info, err := c.gateway.GetIssuance(ctx, issuance.Issuer, issuance.AssetName)
	if err != nil {
		rw.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(rw).Encode(errors.ServiceError{Message: "Asset not found"})
		return
	}

	rw.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(rw).Encode(info)
}

// GetOwnerships handles the GET /asset/{issuer}/{name}/ownerships call.
func (c *AssetController) GetOwnerships(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rw.Header().Set("Content-type", "application/json")

	issuance, ok := issuanceFromPath(rw, r)
	if !ok {
		return
	}
	sel, ok := ownershipSelectFromQuery(rw, r)
	if !ok {
		return
	}

	ownerships, err := c.gateway.ListOwnerships(ctx, issuance, sel)
	if err != nil {
		rw.WriteHeader(http.StatusInternalServerError)
		log.Ctx(ctx).
			Error().
			Err(err).
			Msg("listing ownerships")

		_ = json.NewEncoder(rw).Encode(errors.ServiceError{Message: "Listing ownerships"})
		return
	}
	if ownerships == nil {
		ownerships = []gateway.Ownership{}
	}

	rw.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(rw).Encode(ownerships)
}

// GetPossessions handles the GET /asset/{issuer}/{name}/possessions call.
func (c *AssetController) GetPossessions(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rw.Header().Set("Content-type", "application/json")

	issuance, ok := issuanceFromPath(rw, r)
	if !ok {
		return
	}
	osel, ok := ownershipSelectFromQuery(rw, r)
	if !ok {
		return
	}
	psel, ok := possessionSelectFromQuery(rw, r)
	if !ok {
		return
	}

	possessions, err := c.gateway.ListPossessions(ctx, issuance, osel, psel)
	if err != nil {
		rw.WriteHeader(http.StatusInternalServerError)
		log.Ctx(ctx).
			Error().
			Err(err).
			Msg("listing possessions")

		_ = json.NewEncoder(rw).Encode(errors.ServiceError{Message: "Listing possessions"})
		return
	}
	if possessions == nil {
		possessions = []gateway.Possession{}
	}

	rw.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(rw).Encode(possessions)
}

// GetShares handles the GET /asset/{issuer}/{name}/shares call, summing
// possessed shares under the selector query parameters.
func (c *AssetController) GetShares(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rw.Header().Set("Content-type", "application/json")

	issuance, ok := issuanceFromPath(rw, r)
	if !ok {
		return
	}
	osel, ok := ownershipSelectFromQuery(rw, r)
	if !ok {
		return
	}
	psel, ok := possessionSelectFromQuery(rw, r)
	if !ok {
		return
	}

	total, err := c.gateway.NumberOfShares(ctx, issuance, osel, psel)
	if err != nil {
		rw.WriteHeader(http.StatusInternalServerError)
		log.Ctx(ctx).
			Error().
			Err(err).
			Msg("summing shares")

		_ = json.NewEncoder(rw).Encode(errors.ServiceError{Message: "Summing shares"})
		return
	}

	rw.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(rw).Encode(struct {
		Shares int64 `json:"shares"`
	}{Shares: total})
}

// GetStats handles the GET /universe/stats call.
func (c *AssetController) GetStats(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rw.Header().Set("Content-type", "application/json")

	stats, err := c.gateway.Stats(ctx)
	if err != nil {
		rw.WriteHeader(http.StatusInternalServerError)
		log.Ctx(ctx).
			Error().
			Err(err).
			Msg("reading universe stats")

		_ = json.NewEncoder(rw).Encode(errors.ServiceError{Message: "Reading universe stats"})
		return
	}

	rw.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(rw).Encode(stats)
}

// HealthHandler serves health check requests.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
