package gateway

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/global"
	"go.opentelemetry.io/otel/metric/instrument/syncint64"

	"github.com/qubicnetwork/go-universe/pkg/metrics"
	"github.com/qubicnetwork/go-universe/pkg/universe"
)

// InstrumentedGateway wraps a Gateway with call count and latency metrics.
type InstrumentedGateway struct {
	gateway          Gateway
	callCount        syncint64.Counter
	latencyHistogram syncint64.Histogram
}

var _ Gateway = (*InstrumentedGateway)(nil)

// NewInstrumentedGateway creates a new InstrumentedGateway.
func NewInstrumentedGateway(g Gateway) (*InstrumentedGateway, error) {
	meter := global.MeterProvider().Meter(ServiceName)
	callCount, err := meter.SyncInt64().Counter("gateway.call.count")
	if err != nil {
		return nil, fmt.Errorf("registering call counter: %s", err)
	}
	latencyHistogram, err := meter.SyncInt64().Histogram("gateway.call.latency")
	if err != nil {
		return nil, fmt.Errorf("registering latency histogram: %s", err)
	}
	return &InstrumentedGateway{g, callCount, latencyHistogram}, nil
}

func (g *InstrumentedGateway) record(ctx context.Context, method string, start time.Time, success bool) {
	attributes := append([]attribute.KeyValue{
		attribute.String("method", method),
		attribute.Bool("success", success),
	}, metrics.BaseAttrs...)

	g.callCount.Add(ctx, 1, attributes...)
	g.latencyHistogram.Record(ctx, time.Since(start).Milliseconds(), attributes...)
}

// GetIssuance returns the issuance record for (issuer, name).
func (g *InstrumentedGateway) GetIssuance(
	ctx context.Context, issuer universe.ID, name universe.AssetName,
) (Issuance, error) {
	start := time.Now()
	issuance, err := g.gateway.GetIssuance(ctx, issuer, name)
	g.record(ctx, "GetIssuance", start, err == nil)
	return issuance, err
}

// ListOwnerships enumerates the ownership records matching the selector.
func (g *InstrumentedGateway) ListOwnerships(
	ctx context.Context,
	issuance universe.AssetIssuanceID,
	sel universe.AssetOwnershipSelect,
) ([]Ownership, error) {
	start := time.Now()
	out, err := g.gateway.ListOwnerships(ctx, issuance, sel)
	g.record(ctx, "ListOwnerships", start, err == nil)
	return out, err
}

// ListPossessions enumerates the possession records matching both selectors.
func (g *InstrumentedGateway) ListPossessions(
	ctx context.Context,
	issuance universe.AssetIssuanceID,
	osel universe.AssetOwnershipSelect,
	psel universe.AssetPossessionSelect,
) ([]Possession, error) {
	start := time.Now()
	out, err := g.gateway.ListPossessions(ctx, issuance, osel, psel)
	g.record(ctx, "ListPossessions", start, err == nil)
	return out, err
}

// NumberOfShares sums possessed shares over the selected records.
func (g *InstrumentedGateway) NumberOfShares(
	ctx context.Context,
	issuance universe.AssetIssuanceID,
	osel universe.AssetOwnershipSelect,
	psel universe.AssetPossessionSelect,
) (int64, error) {
	start := time.Now()
	total, err := g.gateway.NumberOfShares(ctx, issuance, osel, psel)
	g.record(ctx, "NumberOfShares", start, err == nil)
	return total, err
}

// Stats returns universe occupancy counters.
func (g *InstrumentedGateway) Stats(ctx context.Context) (universe.Stats, error) {
	start := time.Now()
	stats, err := g.gateway.Stats(ctx)
	g.record(ctx, "Stats", start, err == nil)
	return stats, err
}
