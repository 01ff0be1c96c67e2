package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/ports/adapter"
)

var _ adapter.MomoGateway = (*NoopGateway)(nil)

// NoopGateway is an in-memory gateway for tests and local development.
// Every charge and disburse succeeds synchronously.
type NoopGateway struct {
	mu     sync.Mutex
	seq    int64
	status map[string]adapter.GatewayStatus
}

func NewNoopGateway() *NoopGateway {
	return &NoopGateway{status: make(map[string]adapter.GatewayStatus)}
}

func (g *NoopGateway) Name() string { return "noop" }

func (g *NoopGateway) next() string {
	g.seq++
	return fmt.Sprintf("noop-%d", g.seq)
}

func (g *NoopGateway) Charge(ctx context.Context, req adapter.ChargeRequest) (*adapter.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ref := g.next()
	g.status[ref] = adapter.GatewayStatusSuccessful
	return &adapter.ChargeResult{
		Success:       true,
		ReferenceID:   ref,
		FinTxID:       "fin-" + ref,
		GatewayStatus: adapter.GatewayStatusSuccessful,
	}, nil
}

func (g *NoopGateway) PollStatus(ctx context.Context, referenceID string) (adapter.GatewayStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if st, ok := g.status[referenceID]; ok {
		return st, nil
	}
	return adapter.GatewayStatusPending, nil
}

func (g *NoopGateway) Disburse(ctx context.Context, req adapter.DisburseRequest) (*adapter.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ref := g.next()
	return &adapter.ChargeResult{
		Success:       true,
		ReferenceID:   ref,
		GatewayStatus: adapter.GatewayStatusSuccessful,
	}, nil
}
