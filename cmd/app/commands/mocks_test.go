package commands

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	knowledgeDomain "github.com/allisson/kbsync/internal/knowledge/domain"
	outboxDomain "github.com/allisson/kbsync/internal/outbox/domain"
)

type mockDispatchRunner struct {
	mock.Mock
}

func (m *mockDispatchRunner) DispatchBatch(ctx context.Context, now time.Time) (*outboxDomain.DispatchReport, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outboxDomain.DispatchReport), args.Error(1)
}

type mockReconcileRunner struct {
	mock.Mock
}

func (m *mockReconcileRunner) Scan(ctx context.Context, now time.Time) (*knowledgeDomain.ReconciliationReport, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*knowledgeDomain.ReconciliationReport), args.Error(1)
}

type mockSweepRunner struct {
	mock.Mock
}

func (m *mockSweepRunner) Sweep(ctx context.Context, now time.Time) (*outboxDomain.SweepReport, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outboxDomain.SweepReport), args.Error(1)
}

type mockStatsRunner struct {
	mock.Mock
}

func (m *mockStatsRunner) Stats(ctx context.Context, now time.Time) (*outboxDomain.Stats, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outboxDomain.Stats), args.Error(1)
}
