package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the history needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const createPredictions = `
CREATE TABLE IF NOT EXISTS predictions (
	seq                BIGSERIAL PRIMARY KEY,
	id                 TEXT NOT NULL UNIQUE,
	patient_id         TEXT NOT NULL,
	drug_name          TEXT NOT NULL,
	recommended_dosage DOUBLE PRECISION NOT NULL,
	confidence         DOUBLE PRECISION NOT NULL,
	source             TEXT NOT NULL,
	alternatives       JSONB NOT NULL,
	blockchain_hash    TEXT NOT NULL,
	blockchain_tx_hash TEXT NOT NULL DEFAULT '',
	timestamp_ms       BIGINT NOT NULL,
	status             TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS predictions_blockchain_hash_idx ON predictions (blockchain_hash);
`

const selectPredictions = `SELECT id, patient_id, drug_name, recommended_dosage, confidence, source,
	alternatives, blockchain_hash, blockchain_tx_hash, timestamp_ms, status FROM predictions`

// PostgresHistory stores results in the predictions table.
type PostgresHistory struct {
	db DB
}

func NewPostgresHistory(db DB) *PostgresHistory {
	return &PostgresHistory{db: db}
}

// Migrate creates the predictions table when missing.
func (h *PostgresHistory) Migrate(ctx context.Context) error {
	if _, err := h.db.Exec(ctx, createPredictions); err != nil {
		return fmt.Errorf("migrate predictions: %w", err)
	}
	return nil
}

func (h *PostgresHistory) Append(ctx context.Context, r PredictionResult) error {
	alts, err := json.Marshal(r.AlternativeMedications)
	if err != nil {
		return fmt.Errorf("encode alternatives: %w", err)
	}
	_, err = h.db.Exec(ctx, `INSERT INTO predictions
		(id, patient_id, drug_name, recommended_dosage, confidence, source, alternatives,
		 blockchain_hash, blockchain_tx_hash, timestamp_ms, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.ID, r.PatientID, r.DrugName, r.RecommendedDosage, r.Confidence, r.Source, alts,
		r.BlockchainHash, r.BlockchainTxHash, r.Timestamp, string(r.Status),
	)
	if err != nil {
		return fmt.Errorf("insert prediction %s: %w", r.ID, err)
	}
	return nil
}

func (h *PostgresHistory) Get(ctx context.Context, id string) (PredictionResult, error) {
	return h.one(ctx, selectPredictions+` WHERE id = $1`, id)
}

func (h *PostgresHistory) FindByHash(ctx context.Context, hash string) (PredictionResult, error) {
	return h.one(ctx, selectPredictions+` WHERE blockchain_hash = $1 ORDER BY seq DESC LIMIT 1`, hash)
}

func (h *PostgresHistory) List(ctx context.Context) ([]PredictionResult, error) {
	rows, err := h.db.Query(ctx, selectPredictions+` ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	out := []PredictionResult{}
	for rows.Next() {
		r, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	return out, nil
}

func (h *PostgresHistory) one(ctx context.Context, sql, arg string) (PredictionResult, error) {
	r, err := scanPrediction(h.db.QueryRow(ctx, sql, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return PredictionResult{}, ErrNotFound
	}
	return r, err
}

func scanPrediction(row pgx.Row) (PredictionResult, error) {
	var (
		r      PredictionResult
		alts   []byte
		status string
	)
	err := row.Scan(&r.ID, &r.PatientID, &r.DrugName, &r.RecommendedDosage, &r.Confidence, &r.Source,
		&alts, &r.BlockchainHash, &r.BlockchainTxHash, &r.Timestamp, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PredictionResult{}, err
		}
		return PredictionResult{}, fmt.Errorf("scan prediction: %w", err)
	}
	if err := json.Unmarshal(alts, &r.AlternativeMedications); err != nil {
		return PredictionResult{}, fmt.Errorf("decode alternatives: %w", err)
	}
	r.Status = Status(status)
	return r, nil
}
