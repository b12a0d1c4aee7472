package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Document number prefixes per record kind.
const (
	seqQuote    = "QT"
	seqSale     = "SA"
	seqPurchase = "PO"
)

// nextNumberTx allocates the next document number for a kind inside the
// caller's transaction. The upsert increments number_sequences.last_number
// under the row lock the UPDATE takes, so concurrent allocations serialize
// and numbers are gapless. Rolling back the caller's transaction rolls the
// increment back too.
func nextNumberTx(ctx context.Context, tx pgx.Tx, kind string) (string, error) {
	var last int64
	err := tx.QueryRow(ctx, `
		INSERT INTO number_sequences (kind, last_number)
		VALUES ($1, 1)
		ON CONFLICT (kind)
		DO UPDATE SET last_number = number_sequences.last_number + 1
		RETURNING last_number
	`, kind).Scan(&last)
	if err != nil {
		return "", fmt.Errorf("failed to allocate %s sequence number: %w", kind, err)
	}
	return fmt.Sprintf("%s-%05d", kind, last), nil
}
