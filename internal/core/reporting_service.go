package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// SalesSummary aggregates sales activity over a period.
type SalesSummary struct {
	From           string          `json:"from"`
	To             string          `json:"to"`
	SaleCount      int             `json:"sale_count"`
	GrossAmount    decimal.Decimal `json:"gross_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	NetAmount      decimal.Decimal `json:"net_amount"`
	QuoteCount     int             `json:"quote_count"`
	ConvertedCount int             `json:"converted_count"`
}

// AgingBucket is one band of the receivables aging report.
type AgingBucket struct {
	Label  string          `json:"label"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// ReportingService produces read-only aggregates. Results are cached
// briefly since the dashboard polls them.
type ReportingService interface {
	SalesSummary(ctx context.Context, from, to string) (*SalesSummary, error)
	// ReceivablesAging buckets open receivables by how far past due they
	// are as of the given date: current, 1-30, 31-60, 61-90, 90+ days.
	ReceivablesAging(ctx context.Context, asOf time.Time) ([]AgingBucket, error)
}

type reportingService struct {
	pool  *pgxpool.Pool
	cache *cache.Cache
}

func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{
		pool:  pool,
		cache: cache.New(time.Minute, 5*time.Minute),
	}
}

func (s *reportingService) SalesSummary(ctx context.Context, from, to string) (*SalesSummary, error) {
	for _, d := range []string{from, to} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, fmt.Errorf("invalid report date %q: %w", d, ErrInvalidInput)
		}
	}

	key := "summary:" + from + ":" + to
	if v, ok := s.cache.Get(key); ok {
		return v.(*SalesSummary), nil
	}

	sum := &SalesSummary{From: from, To: to}
	err := s.pool.QueryRow(ctx, `
		SELECT count(*),
		       COALESCE(sum(total_amount), 0),
		       COALESCE(sum(discount_amount), 0),
		       COALESCE(sum(final_amount), 0)
		FROM sales
		WHERE status = $1 AND sale_date BETWEEN $2 AND $3
	`, SaleStatusActive, from, to).Scan(&sum.SaleCount, &sum.GrossAmount, &sum.DiscountAmount, &sum.NetAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sales: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT count(*), count(*) FILTER (WHERE status = $1)
		FROM quotes
		WHERE created_at::date BETWEEN $2 AND $3
	`, QuoteStatusConverted, from, to).Scan(&sum.QuoteCount, &sum.ConvertedCount)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate quotes: %w", err)
	}

	s.cache.Set(key, sum, cache.DefaultExpiration)
	return sum, nil
}

func (s *reportingService) ReceivablesAging(ctx context.Context, asOf time.Time) ([]AgingBucket, error) {
	day := asOf.Format("2006-01-02")
	key := "aging:" + day
	if v, ok := s.cache.Get(key); ok {
		return v.([]AgingBucket), nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT CASE
		         WHEN due_date >= $2::date THEN 'current'
		         WHEN due_date >= $2::date - 30 THEN '1-30'
		         WHEN due_date >= $2::date - 60 THEN '31-60'
		         WHEN due_date >= $2::date - 90 THEN '61-90'
		         ELSE '90+'
		       END AS bucket,
		       count(*),
		       COALESCE(sum(amount), 0)
		FROM financial_accounts
		WHERE type = $1 AND status <> $3
		GROUP BY bucket
	`, AccountReceivable, day, AccountStatusPaid)
	if err != nil {
		return nil, fmt.Errorf("failed to query receivables aging: %w", err)
	}
	defer rows.Close()

	byLabel := make(map[string]AgingBucket)
	for rows.Next() {
		var b AgingBucket
		if err := rows.Scan(&b.Label, &b.Count, &b.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan aging bucket: %w", err)
		}
		byLabel[b.Label] = b
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Fixed order, empty buckets included.
	buckets := make([]AgingBucket, 0, 5)
	for _, label := range []string{"current", "1-30", "31-60", "61-90", "90+"} {
		b, ok := byLabel[label]
		if !ok {
			b = AgingBucket{Label: label, Amount: decimal.Zero}
		}
		buckets = append(buckets, b)
	}

	s.cache.Set(key, buckets, cache.DefaultExpiration)
	return buckets, nil
}
