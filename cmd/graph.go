package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"microcap-trading/config"
	"microcap-trading/internal/chart"
	"microcap-trading/internal/model"
	"microcap-trading/internal/repository"
	"microcap-trading/internal/service"
	"microcap-trading/pkg/utils"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var (
	graphDataDir string
	graphOutput  string
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Plot portfolio equity against the normalized benchmark",
	Run:   Graph,
}

func init() {
	graphCmd.Flags().StringVar(&graphDataDir, "data-dir", "", "directory holding the portfolio CSV")
	graphCmd.Flags().StringVarP(&graphOutput, "output", "o", "", "chart output path")
}

func Graph(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency(ctx, func(cfg *config.Config) {
		if graphDataDir != "" {
			cfg.Portfolio.DataDir = graphDataDir
		}
		if graphOutput != "" {
			cfg.Chart.OutputPath = graphOutput
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
	services := service.NewService(appDep.cfg, appDep.log, repo, appDep.notifier)

	report, err := services.PerformanceService.RenderChart(ctx)
	if err != nil {
		log.Fatalf("Failed to render chart: %v", err)
	}

	fmt.Println(seriesTable(report))
	for _, line := range chart.Summary(*report) {
		fmt.Println(line)
	}
	fmt.Printf("Portfolio return: %s, %s return: %s\n",
		utils.FormatPercentage(report.FinalReturnPct), report.BenchmarkTicker, utils.FormatPercentage(report.BenchmarkReturnPct))
	fmt.Printf("Chart saved to %s\n", report.ChartPath)
}

// seriesTable lines up portfolio equity with the normalized benchmark by date.
func seriesTable(report *model.PerformanceReport) string {
	bench := make(map[time.Time]float64, len(report.Benchmark))
	for _, b := range report.Benchmark {
		bench[b.Date] = b.NormalizedValue
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Date", "Portfolio", report.BenchmarkTicker)
	for _, p := range report.Portfolio {
		benchCell := "-"
		if v, ok := bench[p.Date]; ok {
			benchCell = fmt.Sprintf("%.2f", v)
		}
		t.Row(p.Date.Format(time.DateOnly), utils.FormatUSDFloat(p.TotalEquity), benchCell)
	}
	return t.String()
}
