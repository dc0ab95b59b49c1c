// Package server manages process lifecycle: ordered service startup,
// signal handling, and reverse-order graceful shutdown.
package server

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a long-running component owned by the lifecycle.
type Service interface {
	// Start runs the service and blocks until it stops or fails.
	Start() error
	// Stop asks the service to wind down; Start returns afterwards.
	Stop()
}

// FuncService adapts a start/stop function pair into a Service.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

// Start implements Service.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop implements Service.
func (f *FuncService) Stop() { f.StopFn() }

// Lifecycle starts registered services in order and stops them in reverse
// order on SIGINT, SIGTERM, context cancellation, or the first service
// failure.
type Lifecycle struct {
	logger *zap.Logger

	mu       sync.Mutex
	services []namedService
}

type namedService struct {
	name string
	svc  Service
}

// NewLifecycle creates a Lifecycle.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger}
}

// Add registers a service under a name used in lifecycle logs.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, svc: svc})
}

// Run starts every registered service and blocks until shutdown completes.
//
// Postcondition: every started service has been stopped.
func (l *Lifecycle) Run(ctx context.Context) error {
	started := time.Now()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l.mu.Lock()
	services := l.services
	l.mu.Unlock()

	failures := make(chan error, len(services))
	for _, ns := range services {
		ns := ns
		go func() {
			l.logger.Info("service starting", zap.String("service", ns.name))
			if err := ns.svc.Start(); err != nil {
				failures <- fmt.Errorf("service %s: %w", ns.name, err)
			}
		}()
	}

	var failure error
	select {
	case <-ctx.Done():
		l.logger.Info("shutdown requested")
	case failure = <-failures:
		l.logger.Error("service failed", zap.Error(failure))
	}

	for i := len(services) - 1; i >= 0; i-- {
		ns := services[i]
		l.logger.Info("service stopping", zap.String("service", ns.name))
		ns.svc.Stop()
	}

	l.logger.Info("shutdown complete", zap.Duration("uptime", time.Since(started)))
	return failure
}
