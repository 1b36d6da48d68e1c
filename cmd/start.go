package cmd

import (
	"context"
	"errors"
	"log"
	httpNet "net/http"
	"os"
	"os/signal"
	"syscall"

	"microcap-trading/internal/delivery/http"
	"microcap-trading/internal/repository"
	"microcap-trading/internal/service"
	"microcap-trading/pkg/logger"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the HTTP API and the scheduled automation jobs",
	Run:   Start,
}

func Start(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency(ctx)
	if err != nil {
		log.Fatalf("Failed to create app dependency: %v", err)
	}
	defer func() {
		if err := appDep.Close(); err != nil {
			log.Printf("Failed to close app dependency: %v", err)
		}
	}()

	repo, err := repository.NewRepository(appDep.cfg, appDep.db.Gorm(), appDep.cache, appDep.log)
	if err != nil {
		log.Fatalf("Failed to create repository: %v", err)
	}
	// the API and the graph job still work without a key; automation reports it as unconfigured
	if err := repo.SetLLM(ctx, appDep.cfg, appDep.log); err != nil {
		appDep.log.Warn("LLM gateway not configured, automation disabled", logger.ErrorField(err))
	}

	services := service.NewService(appDep.cfg, appDep.log, repo, appDep.notifier)
	httpHandler := http.NewHttpAPIHandler(ctx, appDep.echo, appDep.validator, services)
	apiServer := NewHTTPServer(ctx, appDep, httpHandler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := apiServer.Start(); err != nil && !errors.Is(err, httpNet.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return services.SchedulerService.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		appDep.log.Info("Shutting down gracefully...")
		services.SchedulerService.Stop()
		return apiServer.Stop()
	})

	if err := g.Wait(); err != nil {
		appDep.log.Error("Server exited with error", logger.ErrorField(err))
	}
}
