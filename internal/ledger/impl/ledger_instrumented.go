package impl

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/global"
	"go.opentelemetry.io/otel/metric/instrument/syncint64"

	"github.com/qubicnetwork/go-universe/internal/ledger"
	"github.com/qubicnetwork/go-universe/pkg/metrics"
	"github.com/qubicnetwork/go-universe/pkg/universe"
)

// InstrumentedLedgerService wraps a Ledger with call count and latency
// metrics.
type InstrumentedLedgerService struct {
	ledger           ledger.Ledger
	callCount        syncint64.Counter
	latencyHistogram syncint64.Histogram
}

var _ ledger.Ledger = (*InstrumentedLedgerService)(nil)

// NewInstrumentedLedgerService creates a new InstrumentedLedgerService.
func NewInstrumentedLedgerService(l ledger.Ledger) (*InstrumentedLedgerService, error) {
	meter := global.MeterProvider().Meter(ledger.ServiceName)
	callCount, err := meter.SyncInt64().Counter("ledger.call.count")
	if err != nil {
		return nil, fmt.Errorf("registering call counter: %s", err)
	}
	latencyHistogram, err := meter.SyncInt64().Histogram("ledger.call.latency")
	if err != nil {
		return nil, fmt.Errorf("registering latency histogram: %s", err)
	}

	return &InstrumentedLedgerService{l, callCount, latencyHistogram}, nil
}

func (s *InstrumentedLedgerService) record(ctx context.Context, method string, start time.Time, success bool) {
	attributes := append([]attribute.KeyValue{
		attribute.String("method", method),
		attribute.Bool("success", success),
	}, metrics.BaseAttrs...)

	s.callCount.Add(ctx, 1, attributes...)
	s.latencyHistogram.Record(ctx, time.Since(start).Milliseconds(), attributes...)
}

// IsAssetIssued reports whether (issuer, name) is issued.
func (s *InstrumentedLedgerService) IsAssetIssued(
	ctx context.Context, issuer universe.ID, name universe.AssetName,
) (bool, error) {
	start := time.Now()
	issued, err := s.ledger.IsAssetIssued(ctx, issuer, name)
	s.record(ctx, "IsAssetIssued", start, err == nil)
	return issued, err
}

// NumberOfShares sums possessed shares over the selected records.
func (s *InstrumentedLedgerService) NumberOfShares(
	ctx context.Context,
	issuance universe.AssetIssuanceID,
	ownership universe.AssetOwnershipSelect,
	possession universe.AssetPossessionSelect,
) (int64, error) {
	start := time.Now()
	total, err := s.ledger.NumberOfShares(ctx, issuance, ownership, possession)
	s.record(ctx, "NumberOfShares", start, err == nil)
	return total, err
}

// IssueAsset creates a new asset issuance on behalf of the calling contract.
func (s *InstrumentedLedgerService) IssueAsset(ctx context.Context, req ledger.IssueAssetRequest) (int64, error) {
	start := time.Now()
	shares, err := s.ledger.IssueAsset(ctx, req)
	s.record(ctx, "IssueAsset", start, err == nil && shares > 0)
	return shares, err
}

// TransferShareOwnershipAndPossession moves shares managed by the calling
// contract to a new holder.
func (s *InstrumentedLedgerService) TransferShareOwnershipAndPossession(
	ctx context.Context, req ledger.TransferRequest,
) (int64, error) {
	start := time.Now()
	remaining, err := s.ledger.TransferShareOwnershipAndPossession(ctx, req)
	s.record(ctx, "TransferShareOwnershipAndPossession", start, err == nil && remaining >= 0)
	return remaining, err
}

// AcquireShares moves management rights to the calling contract.
func (s *InstrumentedLedgerService) AcquireShares(ctx context.Context, req ledger.RightsRequest) (bool, error) {
	start := time.Now()
	ok, err := s.ledger.AcquireShares(ctx, req)
	s.record(ctx, "AcquireShares", start, err == nil && ok)
	return ok, err
}

// ReleaseShares moves management rights away from the calling contract.
func (s *InstrumentedLedgerService) ReleaseShares(ctx context.Context, req ledger.RightsRequest) (bool, error) {
	start := time.Now()
	ok, err := s.ledger.ReleaseShares(ctx, req)
	s.record(ctx, "ReleaseShares", start, err == nil && ok)
	return ok, err
}

// DistributeDividends pays dividends on the calling contract's self-issuance.
func (s *InstrumentedLedgerService) DistributeDividends(
	ctx context.Context, req ledger.DividendsRequest,
) (bool, error) {
	start := time.Now()
	ok, err := s.ledger.DistributeDividends(ctx, req)
	s.record(ctx, "DistributeDividends", start, err == nil && ok)
	return ok, err
}
