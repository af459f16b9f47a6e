package cart

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// mirror runs fire-and-forget remote calls. A failed call is logged and
// swallowed; nothing is retried and nothing waits on a call except wait.
type mirror struct {
	group  errgroup.Group
	logger *zap.Logger
}

func (m *mirror) dispatch(ctx context.Context, op string, fields []zap.Field, call func(ctx context.Context) error) {
	ctx = context.WithoutCancel(ctx)

	m.group.Go(func() error {
		if err := call(ctx); err != nil {
			m.logger.Warn("cart mirror failed",
				append(fields, zap.String("op", op), zap.Error(err))...)
		}
		return nil
	})
}

func (m *mirror) wait() {
	_ = m.group.Wait()
}
