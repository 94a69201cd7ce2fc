package service

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/tendermint/outboundq/libs/log"
)

var (
	// ErrAlreadyStarted is returned when somebody tries to start an already
	// running service.
	ErrAlreadyStarted = errors.New("already started")
	// ErrAlreadyStopped is returned when somebody tries to stop an already
	// stopped service (without resetting it).
	ErrAlreadyStopped = errors.New("already stopped")
	// ErrNotStarted is returned when somebody tries to stop a not running
	// service.
	ErrNotStarted = errors.New("not started")
)

// Service defines a service that can be started and stopped.
type Service interface {
	Start(context.Context) error
	IsRunning() bool
	String() string
	Wait()
}

// Implementation describes the implementation that the BaseService wraps.
type Implementation interface {
	Service

	OnStart(context.Context) error
	OnStop()
}

// BaseService gives the dequeue scheduler (the module's one long-lived
// supervisor) classical-inheritance-style start/stop bookkeeping: override
// OnStart/OnStop, and in their absence of errors they're each called at
// most once.
//
// The caller must ensure Start and Stop are not called concurrently. It is
// fine to call Stop without ever calling Start.
type BaseService struct {
	logger  log.Logger
	name    string
	started uint32 // atomic
	stopped uint32 // atomic
	quit    chan struct{}

	impl Implementation
}

func NewBaseService(logger log.Logger, name string, impl Implementation) *BaseService {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &BaseService{
		logger: logger,
		name:   name,
		quit:   make(chan struct{}),
		impl:   impl,
	}
}

// Start starts the service and calls its OnStart method. An error is
// returned if the service is already running or has already been stopped.
func (bs *BaseService) Start(ctx context.Context) error {
	if atomic.CompareAndSwapUint32(&bs.started, 0, 1) {
		if atomic.LoadUint32(&bs.stopped) == 1 {
			bs.logger.Error("not starting service; already stopped", "service", bs.name)
			atomic.StoreUint32(&bs.started, 0)
			return ErrAlreadyStopped
		}

		bs.logger.Info("starting service", "service", bs.name)

		if err := bs.impl.OnStart(ctx); err != nil {
			atomic.StoreUint32(&bs.started, 0)
			return err
		}

		go func() {
			select {
			case <-bs.quit:
				return
			case <-ctx.Done():
				if !bs.impl.IsRunning() {
					return
				}
				if err := bs.Stop(); err != nil {
					bs.logger.Error("stopping service", "err", err.Error(), "service", bs.name)
				}
			}
		}()

		return nil
	}

	return ErrAlreadyStarted
}

// Stop implements Service by calling OnStop and closing the quit channel.
func (bs *BaseService) Stop() error {
	if atomic.CompareAndSwapUint32(&bs.stopped, 0, 1) {
		if atomic.LoadUint32(&bs.started) == 0 {
			bs.logger.Error("not stopping service; not started", "service", bs.name)
			atomic.StoreUint32(&bs.stopped, 0)
			return ErrNotStarted
		}

		bs.logger.Info("stopping service", "service", bs.name)
		bs.impl.OnStop()
		close(bs.quit)

		return nil
	}

	return ErrAlreadyStopped
}

func (bs *BaseService) IsRunning() bool {
	return atomic.LoadUint32(&bs.started) == 1 && atomic.LoadUint32(&bs.stopped) == 0
}

func (bs *BaseService) Wait() { <-bs.quit }

func (bs *BaseService) String() string { return bs.name }
