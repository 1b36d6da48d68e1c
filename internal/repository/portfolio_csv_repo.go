package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"microcap-trading/config"
	"microcap-trading/internal/model"
	"microcap-trading/internal/performance"
	"microcap-trading/pkg/logger"
	"microcap-trading/pkg/utils"

	"github.com/shopspring/decimal"
)

const (
	colDate        = "Date"
	colTicker      = "Ticker"
	colShares      = "Shares"
	colBuyPrice    = "Buy Price"
	colCostBasis   = "Cost Basis"
	colStopLoss    = "Stop Loss"
	colCashBalance = "Cash Balance"
	colTotalEquity = "Total Equity"

	totalTicker = "TOTAL"
)

// ErrInvalidDate is returned when a row's Date column matches none of the accepted layouts.
var ErrInvalidDate = errors.New("invalid date")

var rowDateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"01/02/2006",
	"2006/01/02",
}

// parseRowDate returns the calendar day of a Date cell as midnight UTC.
func parseRowDate(value string) (time.Time, error) {
	for _, layout := range rowDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return utils.CivilDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w %q", ErrInvalidDate, value)
}

// csvLine is the 1-based file line of a data row; line 1 is the header.
func csvLine(i int) int {
	return i + 2
}

type PortfolioRepository interface {
	// LoadEquitySeries returns the TOTAL rows as an equity curve, baseline first,
	// sorted by date with one observation per date.
	LoadEquitySeries(ctx context.Context) ([]model.EquityObservation, error)
	// LoadLatestState returns holdings and cash from the latest date in the log.
	LoadLatestState(ctx context.Context) (*model.PortfolioState, error)
	Path() string
}

type portfolioCSVRepository struct {
	cfg    *config.Config
	logger *logger.Logger
	path   string
}

func NewPortfolioRepository(cfg *config.Config, log *logger.Logger) PortfolioRepository {
	return &portfolioCSVRepository{
		cfg:    cfg,
		logger: log,
		path:   filepath.Join(cfg.Portfolio.DataDir, cfg.Portfolio.PortfolioFile),
	}
}

func (r *portfolioCSVRepository) Path() string {
	return r.path
}

type csvRow map[string]string

func (r *portfolioCSVRepository) readRows() ([]csvRow, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read header of %s: %w", r.path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows []csvRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", r.path, err)
		}
		row := make(csvRow, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *portfolioCSVRepository) LoadEquitySeries(ctx context.Context) ([]model.EquityObservation, error) {
	baselineDate, err := r.cfg.Portfolio.Baseline()
	if err != nil {
		return nil, fmt.Errorf("invalid baseline date: %w", err)
	}

	rows, err := r.readRows()
	if err != nil {
		return nil, err
	}

	var totals []model.EquityObservation
	for i, row := range rows {
		if !strings.EqualFold(row[colTicker], totalTicker) {
			continue
		}
		date, err := parseRowDate(row[colDate])
		if err != nil {
			r.logger.ErrorContext(ctx, "TOTAL row has an unparseable date",
				logger.IntField("line", csvLine(i)),
				logger.StringField("date", row[colDate]))
			return nil, fmt.Errorf("%s line %d: %w", r.path, csvLine(i), err)
		}
		equity, err := decimal.NewFromString(row[colTotalEquity])
		if err != nil {
			r.logger.DebugContext(ctx, "Skipping TOTAL row with non-numeric equity",
				logger.StringField("date", row[colDate]),
				logger.StringField("total_equity", row[colTotalEquity]))
			continue
		}
		totals = append(totals, model.EquityObservation{Date: date, TotalEquity: equity.InexactFloat64()})
	}

	baseline := model.EquityObservation{Date: baselineDate, TotalEquity: r.cfg.Portfolio.BaselineEquity}
	return performance.PrepareSeries(baseline, totals), nil
}

func (r *portfolioCSVRepository) LoadLatestState(ctx context.Context) (*model.PortfolioState, error) {
	defaultCash := decimal.NewFromFloat(r.cfg.Portfolio.DefaultCash)

	rows, err := r.readRows()
	if errors.Is(err, os.ErrNotExist) {
		r.logger.InfoContext(ctx, "Portfolio file not found, starting from default cash",
			logger.StringField("path", r.path),
			logger.DecimalField("cash", defaultCash))
		return model.NewPortfolioState(defaultCash), nil
	}
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, len(rows))
	var latest time.Time
	for i, row := range rows {
		d, err := parseRowDate(row[colDate])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", r.path, csvLine(i), err)
		}
		dates[i] = d
		if d.After(latest) {
			latest = d
		}
	}
	if latest.IsZero() {
		return model.NewPortfolioState(defaultCash), nil
	}

	state := model.NewPortfolioState(defaultCash)
	for i, row := range rows {
		if !utils.SameDate(dates[i], latest) {
			continue
		}
		if strings.EqualFold(row[colTicker], totalTicker) {
			if cash, err := decimal.NewFromString(row[colCashBalance]); err == nil {
				state.Cash = cash
			}
			continue
		}
		h := model.Holding{
			Ticker:    strings.ToUpper(row[colTicker]),
			Shares:    parseDecimal(row[colShares]),
			StopLoss:  parseDecimal(row[colStopLoss]),
			BuyPrice:  parseDecimal(row[colBuyPrice]),
			CostBasis: parseDecimal(row[colCostBasis]),
		}
		if h.Ticker == "" || !h.Shares.IsPositive() {
			continue
		}
		state.Holdings[h.Ticker] = h
	}
	return state, nil
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
