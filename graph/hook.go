package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dyna-dot/gaffer/errors"
	"github.com/dyna-dot/gaffer/operation"
	"github.com/dyna-dot/gaffer/store"
)

// Hook intercepts chain execution. Hooks run in registration order before
// dispatch and in the same registration order after dispatch, each post-step
// receiving the previous hook's result.
type Hook interface {
	// Name identifies the hook in logs and configuration.
	Name() string
	// PreExecute may mutate or reject the chain before any store is
	// queried. Returning an error aborts the whole execution.
	PreExecute(ctx context.Context, chain *operation.Chain, user store.User) error
	// PostExecute may transform the result. It receives the chain that
	// produced the result and must return a result (possibly the same
	// one) or an error.
	PostExecute(ctx context.Context, result operation.Iterable, chain *operation.Chain,
		user store.User) (operation.Iterable, error)
}

// ChainLogger logs every executed chain. Its post-step passes the result
// through untouched.
type ChainLogger struct {
	Logger *slog.Logger
}

func (h *ChainLogger) Name() string { return "ChainLogger" }

func (h *ChainLogger) PreExecute(_ context.Context, chain *operation.Chain, user store.User) error {
	h.logger().Info("executing chain", "chain", chain.Name(), "user", user.ID)
	return nil
}

func (h *ChainLogger) PostExecute(_ context.Context, result operation.Iterable,
	chain *operation.Chain, user store.User) (operation.Iterable, error) {
	h.logger().Info("executed chain", "chain", chain.Name(), "user", user.ID)
	return result, nil
}

func (h *ChainLogger) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// ChainLimiter rejects chains longer than MaxOperations before dispatch.
type ChainLimiter struct {
	MaxOperations int
}

func (h *ChainLimiter) Name() string { return "ChainLimiter" }

func (h *ChainLimiter) PreExecute(_ context.Context, chain *operation.Chain, _ store.User) error {
	if len(chain.Operations) > h.MaxOperations {
		return errors.WrapInvalid(errors.ErrInvalidChain, "ChainLimiter", "PreExecute",
			fmt.Sprintf("chain has %d operations, limit is %d", len(chain.Operations), h.MaxOperations))
	}
	return nil
}

func (h *ChainLimiter) PostExecute(_ context.Context, result operation.Iterable,
	_ *operation.Chain, _ store.User) (operation.Iterable, error) {
	return result, nil
}
