package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mauv0809/steady-garbanzo/internal/backtest"
	"github.com/mauv0809/steady-garbanzo/internal/models"
	"github.com/mauv0809/steady-garbanzo/internal/screener"
)

// Repository handles database operations for companies, fundamentals,
// prices, custom screens and backtest history.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpsertCompanies inserts or updates companies.
// Returns the number of rows affected.
func (r *Repository) UpsertCompanies(ctx context.Context, companies []models.Company) (int, error) {
	if len(companies) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, c := range companies {
		batch.Queue(`
			INSERT INTO companies (ticker, name, sector, industry, active, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			ON CONFLICT (ticker) DO UPDATE SET
				name = EXCLUDED.name,
				sector = EXCLUDED.sector,
				industry = EXCLUDED.industry,
				active = EXCLUDED.active,
				updated_at = NOW()
		`, c.Ticker, c.Name, c.Sector, c.Industry, c.Active)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	count := 0
	for range companies {
		if _, err := br.Exec(); err != nil {
			return count, fmt.Errorf("upserting company: %w", err)
		}
		count++
	}

	return count, nil
}

// UpsertFundamentals inserts or updates annual fundamental periods.
func (r *Repository) UpsertFundamentals(ctx context.Context, rows []models.Fundamental) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, f := range rows {
		batch.Queue(`
			INSERT INTO fundamentals (
				ticker, period_end,
				revenue, net_profit, operating_cash_flow,
				market_cap, price,
				price_to_book, price_to_earnings, ev_ebitda,
				roe, roce, debt_equity, current_ratio, interest_coverage,
				opm, npm, altman_z_score, ocf_to_net_profit,
				updated_at
			) VALUES (
				$1, $2,
				$3, $4, $5,
				$6, $7,
				$8, $9, $10,
				$11, $12, $13, $14, $15,
				$16, $17, $18, $19,
				NOW()
			)
			ON CONFLICT (ticker, period_end) DO UPDATE SET
				revenue = EXCLUDED.revenue,
				net_profit = EXCLUDED.net_profit,
				operating_cash_flow = EXCLUDED.operating_cash_flow,
				market_cap = EXCLUDED.market_cap,
				price = EXCLUDED.price,
				price_to_book = EXCLUDED.price_to_book,
				price_to_earnings = EXCLUDED.price_to_earnings,
				ev_ebitda = EXCLUDED.ev_ebitda,
				roe = EXCLUDED.roe,
				roce = EXCLUDED.roce,
				debt_equity = EXCLUDED.debt_equity,
				current_ratio = EXCLUDED.current_ratio,
				interest_coverage = EXCLUDED.interest_coverage,
				opm = EXCLUDED.opm,
				npm = EXCLUDED.npm,
				altman_z_score = EXCLUDED.altman_z_score,
				ocf_to_net_profit = EXCLUDED.ocf_to_net_profit,
				updated_at = NOW()
		`,
			f.Ticker, f.PeriodEnd,
			f.Revenue, f.NetProfit, f.OperatingCashFlow,
			f.MarketCap, f.Price,
			f.PriceToBook, f.PriceToEarnings, f.EVEBITDA,
			f.ROE, f.ROCE, f.DebtEquity, f.CurrentRatio, f.InterestCoverage,
			f.OPM, f.NPM, f.AltmanZScore, f.OCFToNetProfit,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	count := 0
	for range rows {
		if _, err := br.Exec(); err != nil {
			return count, fmt.Errorf("upserting fundamental: %w", err)
		}
		count++
	}

	return count, nil
}

// UpsertDailyPrices inserts or updates daily price bars.
func (r *Repository) UpsertDailyPrices(ctx context.Context, rows []models.DailyPrice) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, p := range rows {
		batch.Queue(`
			INSERT INTO daily_prices (ticker, date, open, high, low, close, volume)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (ticker, date) DO UPDATE SET
				open = EXCLUDED.open,
				high = EXCLUDED.high,
				low = EXCLUDED.low,
				close = EXCLUDED.close,
				volume = EXCLUDED.volume
		`, p.Ticker, p.Date, p.Open, p.High, p.Low, p.Close, p.Volume)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	count := 0
	for range rows {
		if _, err := br.Exec(); err != nil {
			return count, fmt.Errorf("upserting daily price: %w", err)
		}
		count++
	}

	return count, nil
}

// GetCompanies returns all active companies ordered by ticker.
func (r *Repository) GetCompanies(ctx context.Context) ([]models.Company, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ticker, name, sector, industry, active
		FROM companies
		WHERE active = true
		ORDER BY ticker
	`)
	if err != nil {
		return nil, fmt.Errorf("querying companies: %w", err)
	}
	defer rows.Close()

	var companies []models.Company
	for rows.Next() {
		var c models.Company
		if err := rows.Scan(&c.Ticker, &c.Name, &c.Sector, &c.Industry, &c.Active); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}

	return companies, rows.Err()
}

// GetCompany returns one company; the error wraps pgx.ErrNoRows when the
// ticker is unknown.
func (r *Repository) GetCompany(ctx context.Context, ticker string) (models.Company, error) {
	var c models.Company
	err := r.pool.QueryRow(ctx, `
		SELECT ticker, name, sector, industry, active
		FROM companies
		WHERE ticker = $1
	`, ticker).Scan(&c.Ticker, &c.Name, &c.Sector, &c.Industry, &c.Active)
	if err != nil {
		return models.Company{}, fmt.Errorf("querying company %s: %w", ticker, err)
	}
	return c, nil
}

// GetAllTickers returns the tickers of all active companies.
func (r *Repository) GetAllTickers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ticker FROM companies WHERE active = true ORDER BY ticker
	`)
	if err != nil {
		return nil, fmt.Errorf("querying tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}

	return tickers, rows.Err()
}

// CompanyCount returns the number of stored companies.
func (r *Repository) CompanyCount(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM companies`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting companies: %w", err)
	}
	return n, nil
}

// FundamentalCount returns the number of stored fundamental periods.
func (r *Repository) FundamentalCount(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM fundamentals`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting fundamentals: %w", err)
	}
	return n, nil
}

// PriceCount returns the number of stored daily price bars.
func (r *Repository) PriceCount(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM daily_prices`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting daily prices: %w", err)
	}
	return n, nil
}

// LatestPriceDate returns the most recent price date on record, or a zero
// time when no prices are stored.
func (r *Repository) LatestPriceDate(ctx context.Context) (time.Time, error) {
	var latest *time.Time
	err := r.pool.QueryRow(ctx, `SELECT MAX(date) FROM daily_prices`).Scan(&latest)
	if err != nil {
		return time.Time{}, fmt.Errorf("querying latest price date: %w", err)
	}
	if latest == nil {
		return time.Time{}, nil
	}
	return *latest, nil
}

// GetSectors returns the distinct non-empty sectors.
func (r *Repository) GetSectors(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT sector FROM companies
		WHERE sector <> '' ORDER BY sector
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sectors: %w", err)
	}
	defer rows.Close()

	var sectors []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		sectors = append(sectors, s)
	}

	return sectors, rows.Err()
}

// GetFundamentals returns all annual periods for a ticker, oldest first.
// Cutoff filtering is the snapshot builder's job, not the query's.
func (r *Repository) GetFundamentals(ctx context.Context, ticker string) ([]models.Fundamental, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ticker, period_end,
			revenue, net_profit, operating_cash_flow,
			market_cap, price,
			price_to_book, price_to_earnings, ev_ebitda,
			roe, roce, debt_equity, current_ratio, interest_coverage,
			opm, npm, altman_z_score, ocf_to_net_profit
		FROM fundamentals
		WHERE ticker = $1
		ORDER BY period_end
	`, ticker)
	if err != nil {
		return nil, fmt.Errorf("querying fundamentals for %s: %w", ticker, err)
	}
	defer rows.Close()

	var out []models.Fundamental
	for rows.Next() {
		var f models.Fundamental
		if err := rows.Scan(
			&f.Ticker, &f.PeriodEnd,
			&f.Revenue, &f.NetProfit, &f.OperatingCashFlow,
			&f.MarketCap, &f.Price,
			&f.PriceToBook, &f.PriceToEarnings, &f.EVEBITDA,
			&f.ROE, &f.ROCE, &f.DebtEquity, &f.CurrentRatio, &f.InterestCoverage,
			&f.OPM, &f.NPM, &f.AltmanZScore, &f.OCFToNetProfit,
		); err != nil {
			return nil, err
		}
		out = append(out, f)
	}

	return out, rows.Err()
}

// GetPriceSeries returns the chronological price series for a ticker in
// [from, to], converted to float bars for the calculators.
func (r *Repository) GetPriceSeries(ctx context.Context, ticker string, from, to time.Time) ([]models.PricePoint, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date, open, high, low, close, volume
		FROM daily_prices
		WHERE ticker = $1 AND date >= $2 AND date <= $3
		ORDER BY date
	`, ticker, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying prices for %s: %w", ticker, err)
	}
	defer rows.Close()

	var series []models.PricePoint
	for rows.Next() {
		var p models.DailyPrice
		if err := rows.Scan(&p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume); err != nil {
			return nil, err
		}
		series = append(series, models.PricePoint{
			Date:   p.Date,
			Open:   p.Open.InexactFloat64(),
			High:   p.High.InexactFloat64(),
			Low:    p.Low.InexactFloat64(),
			Close:  p.Close.InexactFloat64(),
			Volume: p.Volume,
		})
	}

	return series, rows.Err()
}

// SaveCustomScreen inserts or replaces a custom screen by name.
func (r *Repository) SaveCustomScreen(ctx context.Context, def screener.Definition) error {
	criteria, err := json.Marshal(def.Criteria)
	if err != nil {
		return fmt.Errorf("encoding criteria: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO custom_screens (name, description, logic, criteria, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (name) DO UPDATE SET
			description = EXCLUDED.description,
			logic = EXCLUDED.logic,
			criteria = EXCLUDED.criteria,
			updated_at = NOW()
	`, def.Name, def.Description, string(def.Logic), criteria)
	if err != nil {
		return fmt.Errorf("saving custom screen %s: %w", def.Name, err)
	}
	return nil
}

// GetCustomScreen loads a custom screen by name. Returns
// screener.ErrScreenNotFound when no such screen exists.
func (r *Repository) GetCustomScreen(ctx context.Context, name string) (screener.Definition, error) {
	var (
		def      screener.Definition
		logic    string
		criteria []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT name, description, logic, criteria
		FROM custom_screens
		WHERE name = $1
	`, name).Scan(&def.Name, &def.Description, &logic, &criteria)
	if errors.Is(err, pgx.ErrNoRows) {
		return screener.Definition{}, screener.ErrScreenNotFound
	}
	if err != nil {
		return screener.Definition{}, fmt.Errorf("querying custom screen %s: %w", name, err)
	}

	def.Logic = screener.Logic(logic)
	if err := json.Unmarshal(criteria, &def.Criteria); err != nil {
		return screener.Definition{}, fmt.Errorf("decoding criteria for %s: %w", name, err)
	}
	return def, nil
}

// ListCustomScreens returns all custom screens ordered by name.
func (r *Repository) ListCustomScreens(ctx context.Context) ([]screener.Definition, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, description, logic, criteria
		FROM custom_screens
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("listing custom screens: %w", err)
	}
	defer rows.Close()

	var out []screener.Definition
	for rows.Next() {
		var (
			def      screener.Definition
			logic    string
			criteria []byte
		)
		if err := rows.Scan(&def.Name, &def.Description, &logic, &criteria); err != nil {
			return nil, err
		}
		def.Logic = screener.Logic(logic)
		if err := json.Unmarshal(criteria, &def.Criteria); err != nil {
			return nil, fmt.Errorf("decoding criteria for %s: %w", def.Name, err)
		}
		out = append(out, def)
	}

	return out, rows.Err()
}

// DeleteCustomScreen removes a custom screen. Returns
// screener.ErrScreenNotFound when nothing was deleted.
func (r *Repository) DeleteCustomScreen(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM custom_screens WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("deleting custom screen %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return screener.ErrScreenNotFound
	}
	return nil
}

// AppendBacktestRun persists a completed run. Runs are append-only and
// never updated, so concurrent backtests are safe to persist.
func (r *Repository) AppendBacktestRun(ctx context.Context, run *backtest.Run) error {
	positions, err := json.Marshal(run.Positions)
	if err != nil {
		return fmt.Errorf("encoding positions: %w", err)
	}
	failures, err := json.Marshal(run.Failures)
	if err != nil {
		return fmt.Errorf("encoding failures: %w", err)
	}

	var bestTicker, worstTicker *string
	var bestReturn, worstReturn *float64
	if run.BestPerformer != nil {
		bestTicker, bestReturn = &run.BestPerformer.Ticker, &run.BestPerformer.ReturnPct
	}
	if run.WorstPerformer != nil {
		worstTicker, worstReturn = &run.WorstPerformer.Ticker, &run.WorstPerformer.ReturnPct
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO backtest_runs (
			id, screen_name, start_date, end_date, holding_period_days,
			total_screened, stocks_passed,
			average_return, median_return, max_return, min_return, stddev_return,
			best_ticker, best_return, worst_ticker, worst_return,
			winning_count, losing_count,
			positions, failures, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15, $16,
			$17, $18,
			$19, $20, $21
		)
	`,
		run.ID, run.ScreenName, run.StartDate, run.EndDate, run.HoldingPeriodDays,
		run.TotalScreened, run.StocksPassed,
		run.AverageReturn, run.MedianReturn, run.MaxReturn, run.MinReturn, run.StdDevReturn,
		bestTicker, bestReturn, worstTicker, worstReturn,
		run.WinningCount, run.LosingCount,
		positions, failures, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("appending backtest run: %w", err)
	}
	return nil
}

// ListBacktestRuns returns stored runs, newest first, optionally filtered
// by screen name.
func (r *Repository) ListBacktestRuns(ctx context.Context, screenName string) ([]backtest.Run, error) {
	query := `
		SELECT id, screen_name, start_date, end_date, holding_period_days,
			total_screened, stocks_passed,
			average_return, median_return, max_return, min_return, stddev_return,
			best_ticker, best_return, worst_ticker, worst_return,
			winning_count, losing_count,
			positions, failures, created_at
		FROM backtest_runs
	`
	args := []interface{}{}
	if screenName != "" {
		query += ` WHERE screen_name = $1`
		args = append(args, screenName)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing backtest runs: %w", err)
	}
	defer rows.Close()

	var out []backtest.Run
	for rows.Next() {
		var (
			run                     backtest.Run
			bestTicker, worstTicker *string
			bestReturn, worstReturn *float64
			positions, failures     []byte
		)
		if err := rows.Scan(
			&run.ID, &run.ScreenName, &run.StartDate, &run.EndDate, &run.HoldingPeriodDays,
			&run.TotalScreened, &run.StocksPassed,
			&run.AverageReturn, &run.MedianReturn, &run.MaxReturn, &run.MinReturn, &run.StdDevReturn,
			&bestTicker, &bestReturn, &worstTicker, &worstReturn,
			&run.WinningCount, &run.LosingCount,
			&positions, &failures, &run.CreatedAt,
		); err != nil {
			return nil, err
		}

		run.State = backtest.StateCompleted
		if bestTicker != nil && bestReturn != nil {
			run.BestPerformer = &backtest.Performer{Ticker: *bestTicker, ReturnPct: *bestReturn}
		}
		if worstTicker != nil && worstReturn != nil {
			run.WorstPerformer = &backtest.Performer{Ticker: *worstTicker, ReturnPct: *worstReturn}
		}
		if err := json.Unmarshal(positions, &run.Positions); err != nil {
			return nil, fmt.Errorf("decoding positions: %w", err)
		}
		if err := json.Unmarshal(failures, &run.Failures); err != nil {
			return nil, fmt.Errorf("decoding failures: %w", err)
		}

		out = append(out, run)
	}

	return out, rows.Err()
}
