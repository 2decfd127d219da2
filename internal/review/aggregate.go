package review

import (
	"context"
	"fmt"

	"github.com/finnrudolph/firmlens/internal/monitoring"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AverageRating computes the arithmetic mean of ratings rounded half-up
// to 2 decimal places. An empty set yields exactly 0.00. The result is a
// pure function of the input; repeated calls over the same set agree.
func AverageRating(ratings []int) decimal.Decimal {
	if len(ratings) == 0 {
		return decimal.Zero.Round(2)
	}

	sum := decimal.Zero
	for _, r := range ratings {
		sum = sum.Add(decimal.NewFromInt(int64(r)))
	}

	return sum.Div(decimal.NewFromInt(int64(len(ratings)))).Round(2)
}

// recompute re-derives total_reviews and average_rating for a company
// from the review set visible to tx. It never reads the previous
// aggregate values, so no drift can accumulate across mutations. The
// new aggregates are returned for logging.
func (s *Service) recompute(ctx context.Context, tx pgx.Tx, companyID uuid.UUID) (int, decimal.Decimal, error) {
	rows, err := tx.Query(ctx, `
		SELECT rating FROM reviews WHERE company_id = $1
	`, companyID)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("%w: read reviews: %v", ErrAggregationFailed, err)
	}

	var ratings []int
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			rows.Close()
			return 0, decimal.Zero, fmt.Errorf("%w: scan rating: %v", ErrAggregationFailed, err)
		}
		ratings = append(ratings, rating)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, decimal.Zero, fmt.Errorf("%w: iterate ratings: %v", ErrAggregationFailed, err)
	}

	avg := AverageRating(ratings)

	tag, err := tx.Exec(ctx, `
		UPDATE companies
		SET total_reviews = $1, average_rating = $2, updated_at = NOW()
		WHERE id = $3
	`, len(ratings), avg, companyID)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("%w: write aggregates: %v", ErrAggregationFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, decimal.Zero, ErrCompanyNotFound
	}

	monitoring.RecordRatingRecompute()
	return len(ratings), avg, nil
}

// Recompute re-derives a company's aggregate fields in its own
// transaction. Review mutations already recompute inline; this entry
// point exists for administrative backfills and is safe to repeat.
func (s *Service) Recompute(ctx context.Context, companyID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, _, err := s.recompute(ctx, tx, companyID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
