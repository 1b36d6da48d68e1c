package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"microcap-trading/config"
	"microcap-trading/internal/dto"
	"microcap-trading/internal/repository"
	"microcap-trading/internal/service"

	"github.com/spf13/cobra"
)

var (
	automateAPIKey  string
	automateModel   string
	automateDataDir string
	automateDryRun  bool
)

var automateCmd = &cobra.Command{
	Use:   "automate",
	Short: "Ask the LLM for trades and simulate them against the portfolio",
	Run:   Automate,
}

func init() {
	automateCmd.Flags().StringVar(&automateAPIKey, "api-key", "", "LLM API key (defaults to LLM_API_KEY / OPENAI_API_KEY)")
	automateCmd.Flags().StringVar(&automateModel, "model", "", "model name override")
	automateCmd.Flags().StringVar(&automateDataDir, "data-dir", "", "directory holding the portfolio CSV and response log")
	automateCmd.Flags().BoolVar(&automateDryRun, "dry-run", false, "print the planned trades without executing them")
}

func Automate(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency(ctx, func(cfg *config.Config) {
		if automateAPIKey != "" {
			cfg.LLM.APIKey = automateAPIKey
		}
		if automateDataDir != "" {
			cfg.Portfolio.DataDir = automateDataDir
		}
	})
	if err != nil {
		log.Fatalf("Failed to create app dependency: %v", err)
	}
	defer appDep.Close()

	repo, err := repository.NewRepository(appDep.cfg, appDep.db.Gorm(), appDep.cache, appDep.log)
	if err != nil {
		log.Fatalf("Failed to create repository: %v", err)
	}
	if err := repo.SetLLM(ctx, appDep.cfg, appDep.log); err != nil {
		log.Fatalf("Failed to create LLM gateway: %v", err)
	}
	services := service.NewService(appDep.cfg, appDep.log, repo, appDep.notifier)

	result, err := services.AutomationService.Run(ctx, dto.AutomationOptions{
		DryRun: automateDryRun || appDep.cfg.Automation.DryRun,
		Model:  automateModel,
	})
	if err != nil {
		log.Fatalf("Automation failed: %v", err)
	}

	fmt.Println(service.AutomationSummary(result))
	if result.ResponseLogPath != "" {
		fmt.Printf("Response saved to %s\n", result.ResponseLogPath)
	}
}
