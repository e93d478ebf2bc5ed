package spotd

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ModuleRunner runs a module within the supervisor.
type ModuleRunner struct {
	Name string
	Run  func(ctx context.Context) error
}

// Supervisor manages module lifecycles.
type Supervisor struct {
	Logger *zap.Logger
}

// Run starts all module runners and waits for them to stop. The first
// module error cancels the others.
func (s Supervisor) Run(ctx context.Context, modules []ModuleRunner) error {
	if len(modules) == 0 {
		return fmt.Errorf("no modules enabled")
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{}, len(modules))
	errCh := make(chan error, len(modules))

	for _, module := range modules {
		m := module
		go func() {
			defer func() { done <- struct{}{} }()
			log := logger.With(zap.String("module", m.Name))
			log.Info("starting module")
			if err := m.Run(ctx); err != nil {
				log.Error("module exited", zap.Error(err))
				errCh <- fmt.Errorf("%s: %w", m.Name, err)
				return
			}
			log.Info("module stopped")
		}()
	}

	var firstErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case firstErr = <-errCh:
		cancel()
	}

	for range modules {
		<-done
	}
	return firstErr
}
