package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"visionserver/internal/model"
)

// ResultRepository implements repository.ResultRepository for SQLite.
type ResultRepository struct {
	db *DB
}

// NewResultRepository creates a new SQLite result repository.
func NewResultRepository(db *DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Insert adds a finished result. A single INSERT keeps the write atomic:
// readers never observe a partial row.
func (r *ResultRepository) Insert(res *model.Result) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	processed, err := json.Marshal(res)
	if err != nil {
		return 0, fmt.Errorf("failed to encode processed results: %w", err)
	}

	row, err := r.db.Conn().Exec(`
		INSERT INTO results (correlation_id, device, timestamp, image_path, processed_path,
			inference_results, processed_results, confidence, threshold)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, res.CorrelationID, res.Device, res.Timestamp, res.ImagePath, res.ProcessedPath,
		string(res.Verdict), string(processed), res.Confidence, res.Threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to insert result: %w", err)
	}

	id, err := row.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	res.ID = id
	return id, nil
}

// GetByID retrieves a single result.
func (r *ResultRepository) GetByID(id int64) (*model.Result, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`
		SELECT id, correlation_id, device, timestamp, image_path, processed_path,
			inference_results, confidence, threshold
		FROM results WHERE id = ?
	`, id)

	res, err := scanResult(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("result %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query result: %w", err)
	}
	return res, nil
}

// GetRecent retrieves the newest results, most recent first.
func (r *ResultRepository) GetRecent(limit int) ([]model.Result, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Conn().Query(`
		SELECT id, correlation_id, device, timestamp, image_path, processed_path,
			inference_results, confidence, threshold
		FROM results ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

// CountByVerdict returns the number of stored results with the given verdict.
func (r *ResultRepository) CountByVerdict(verdict model.Verdict) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM results WHERE inference_results = ?`,
		string(verdict)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(s scanner) (*model.Result, error) {
	var res model.Result
	var verdict string
	if err := s.Scan(&res.ID, &res.CorrelationID, &res.Device, &res.Timestamp,
		&res.ImagePath, &res.ProcessedPath, &verdict, &res.Confidence, &res.Threshold); err != nil {
		return nil, err
	}
	res.Verdict = model.Verdict(strings.ToUpper(verdict))
	return &res, nil
}
