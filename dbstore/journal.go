package dbstore

import (
	"context"
	"database/sql"
	"strings"

	commonerrors "github.com/TextToChain/settlement-lib/common/errors"
	"github.com/TextToChain/settlement-lib/common/types"
	"github.com/pkg/errors"
)

// InsertRequest records an accepted transfer request in the journal.
//
// Parameters:
// - ctx: the context for managing the request.
// - req: the accepted transfer request.
//
// Returns:
// - error: an error if the database operation fails.
func (s *DBStore) InsertRequest(ctx context.Context, req *types.TransferRequest) error {
	db, err := sql.Open("postgres", s.dbConnStr)
	if err != nil {
		return commonerrors.ErrDatabaseConnect
	}
	defer db.Close()

	baseAmount := ""
	if req.BaseAmount != nil {
		baseAmount = req.BaseAmount.String()
	}

	_, err = db.ExecContext(ctx, `
       INSERT INTO settlement (
           request_id,
           kind,
           from_address,
           to_address,
           token,
           amount,
           base_amount,
           from_chain_id,
           to_chain_id,
           status,
           accepted_at
       ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		req.ID,
		string(req.Kind),
		req.FromAddress,
		req.ToAddress,
		req.Token,
		req.Amount,
		baseAmount,
		req.FromChain,
		req.ToChain,
		string(req.Status),
		req.AcceptedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to insert settlement")
	}

	return nil
}

// RecordOutcome records the terminal outcome of a settled request.
//
// Parameters:
// - ctx: the context for managing the request.
// - requestID: the settled request's identifier.
// - status: the terminal status.
// - outcome: the settlement outcome.
//
// Returns:
// - error: an error if the database operation fails.
func (s *DBStore) RecordOutcome(ctx context.Context, requestID string, status types.TransferStatus, outcome *types.SettlementOutcome) error {
	db, err := sql.Open("postgres", s.dbConnStr)
	if err != nil {
		return commonerrors.ErrDatabaseConnect
	}
	defer db.Close()

	outputAmount := ""
	if outcome.OutputAmount != nil {
		outputAmount = outcome.OutputAmount.String()
	}

	_, err = db.ExecContext(ctx, `
       UPDATE settlement SET
           status = $2,
           path = $3,
           tx_hashes = $4,
           channel_ref = $5,
           output_amount = $6,
           pending = $7,
           indeterminate = $8,
           error = $9,
           settled_at = NOW()
       WHERE request_id = $1`,
		requestID,
		string(status),
		string(outcome.Path),
		strings.Join(outcome.TxHashes, ","),
		outcome.ChannelRef,
		outputAmount,
		outcome.Pending,
		outcome.Indeterminate,
		outcome.Error,
	)
	if err != nil {
		return errors.Wrap(err, "failed to record settlement outcome")
	}

	return nil
}
