package server

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/rfmapper/internal/mapper"
	"github.com/autopeer-io/rfmapper/internal/mapper/server/grpc"
	"github.com/autopeer-io/rfmapper/internal/mapper/server/http"
	"github.com/autopeer-io/rfmapper/pkg/log"
)

// Server defines the common interface for all sub-servers (grpc, http).
type Server interface {
	Start(ctx context.Context) error
}

// Mapper is the lifecycle the manager drives.
type Mapper interface {
	Start(ctx context.Context) error
	Stop() error
	Status() mapper.Status
	Running() bool
}

// Manager runs the mapper next to its status servers. The first failure
// cancels the others.
type Manager struct {
	mapper  Mapper
	servers []Server
	health  *grpc.Server
	logger  log.Logger
}

// NewManager creates the servers whose address is set.
func NewManager(cfg *Config, m Mapper) (*Manager, error) {
	if m == nil {
		return nil, fmt.Errorf("mapper is required")
	}

	mgr := &Manager{
		mapper: m,
		logger: log.WithName("server"),
	}

	if cfg.HttpOptions != nil && cfg.HttpOptions.Addr != "" {
		mgr.servers = append(mgr.servers, http.NewServer(cfg.HttpOptions, m))
	}

	if cfg.GrpcOptions != nil && cfg.GrpcOptions.Addr != "" {
		mgr.health = grpc.NewServer(cfg.GrpcOptions)
		mgr.servers = append(mgr.servers, mgr.health)
	}

	return mgr, nil
}

// Start launches the mapper and all servers and blocks until ctx is done or
// one of them fails.
func (m *Manager) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, s := range m.servers {
		g.Go(func() error {
			return s.Start(ctx)
		})
	}
	g.Go(func() error {
		return m.runMapper(ctx)
	})

	m.logger.Info("All servers starting...", "servers", len(m.servers))
	return g.Wait()
}

func (m *Manager) runMapper(ctx context.Context) error {
	if err := m.mapper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start mapper: %w", err)
	}
	m.setServing(true)

	<-ctx.Done()

	m.setServing(false)
	if err := m.mapper.Stop(); err != nil {
		return fmt.Errorf("failed to stop mapper: %w", err)
	}
	return nil
}

func (m *Manager) setServing(serving bool) {
	if m.health != nil {
		m.health.SetServing(serving)
	}
}
