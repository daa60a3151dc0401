package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nmstate/nmstate-go/src/internal/api"
	"github.com/nmstate/nmstate-go/src/internal/config"
	"github.com/nmstate/nmstate-go/src/internal/log"
	"github.com/nmstate/nmstate-go/src/internal/nmstate"
)

const shutdownTimeout = 10 * time.Second

func CreateServiceCommand() *ServiceCommand {
	sc := &ServiceCommand{
		fs: flag.NewFlagSet("service", flag.ExitOnError),
	}

	sc.fs.StringVar(&sc.ListenAddr, "listen", "", "Override api.listen_addr from the configuration")

	return sc
}

// ServiceCommand serves the HTTP API until SIGINT or SIGTERM. SIGHUP reloads
// the [api] section when the configuration file changed.
type ServiceCommand struct {
	fs  *flag.FlagSet
	ctx *AppContext
	cfg *config.Config
	lib *nmstate.Library

	ListenAddr string

	configHasher *config.ConfigHasher
	apiRunner    *RestartableRunner
}

func (s *ServiceCommand) Name() string {
	return s.fs.Name()
}

func (s *ServiceCommand) Init(args []string, ctx *AppContext) error {
	s.ctx = ctx

	if err := s.fs.Parse(args); err != nil {
		return err
	}

	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	s.cfg = cfg

	s.configHasher = config.NewConfigHasher(ctx.ConfigPath)
	if err := s.configHasher.MarkActive(); err != nil {
		return fmt.Errorf("failed to hash configuration: %v", err)
	}

	s.lib = newLibrary(cfg, ctx)

	return nil
}

func (s *ServiceCommand) loadConfig() (*config.Config, error) {
	cfg, err := loadAndValidateConfigOrFail(s.ctx.ConfigPath)
	if err != nil {
		return nil, err
	}
	if s.ListenAddr != "" {
		cfg.API.ListenAddr = s.ListenAddr
	}
	return cfg, nil
}

func (s *ServiceCommand) Run() error {
	log.Infof("Starting nmstate service...")
	defer s.lib.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	if nmstate.QueryApplySupported {
		if err := s.lib.RestoreCheckpoint(ctx); err != nil {
			log.Warnf("Failed to restore checkpoint: %v", err)
		}
	}

	if err := s.startAPI(ctx); err != nil {
		return err
	}

	for {
		select {
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				s.reload(ctx)
				continue
			}
			log.Infof("Received %s, shutting down...", sig)
			return s.apiRunner.Stop()

		case <-s.apiRunner.Done():
			return fmt.Errorf("API server stopped: %v", s.apiRunner.LastError())
		}
	}
}

func (s *ServiceCommand) startAPI(ctx context.Context) error {
	handler := api.NewRouter(s.lib, s.configHasher, s.cfg.API.EnableMetrics)
	addr := s.cfg.API.ListenAddr

	s.apiRunner = NewRestartableRunner(RunnerConfig{Name: "API server", MaxRestarts: 10},
		func(ctx context.Context) error {
			return serveUntilDone(ctx, api.NewServer(addr, handler))
		})
	return s.apiRunner.Start(ctx)
}

// reload restarts the API server with the [api] section of a changed
// configuration file. Library settings need a service restart.
func (s *ServiceCommand) reload(ctx context.Context) {
	outdated, err := s.configHasher.IsOutdated()
	if err != nil {
		log.Errorf("Failed to check configuration: %v", err)
		return
	}
	if !outdated {
		log.Infof("Configuration unchanged, nothing to reload")
		return
	}

	cfg, err := s.loadConfig()
	if err != nil {
		log.Errorf("Keeping the running configuration: %v", err)
		return
	}
	if *cfg.General != *s.cfg.General {
		log.Warnf("[general] changed; restart the service to apply it")
	}

	if err := s.apiRunner.Stop(); err != nil {
		log.Errorf("Failed to stop API server: %v", err)
		return
	}
	s.cfg.API = cfg.API
	if err := s.startAPI(ctx); err != nil {
		log.Errorf("Failed to restart API server: %v", err)
		return
	}
	if err := s.configHasher.MarkActive(); err != nil {
		log.Warnf("Failed to hash configuration: %v", err)
	}
	log.Infof("Configuration reloaded")
}

// serveUntilDone runs srv until ctx is cancelled or the server fails.
func serveUntilDone(ctx context.Context, srv *api.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err == nil {
			return fmt.Errorf("server closed unexpectedly")
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Warnf("[API] Shutdown error: %v", err)
		}
		<-errCh
		return nil
	}
}
