package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/seoscope/seoscope/internal/engine"
)

// ReplaceAnalysis swaps the stored analysis tree for rec.PostID inside one
// transaction: prior rows are deleted deepest-first (operations, factors,
// contexts, analysis), then the new tree is inserted with fresh foreign
// keys. A failure anywhere rolls the whole swap back, so the previous tree
// survives a failed save and a successful save never leaves orphans.
func (db *DB) ReplaceAnalysis(ctx context.Context, rec engine.AnalysisRecord) (engine.AnalysisRecord, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return rec, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteTree(ctx, tx, rec.PostID); err != nil {
		return rec, fmt.Errorf("deleting prior analysis for post %d: %w", rec.PostID, err)
	}
	inserted, err := insertTree(ctx, tx, rec)
	if err != nil {
		return rec, fmt.Errorf("inserting analysis for post %d: %w", rec.PostID, err)
	}
	if err := tx.Commit(); err != nil {
		return rec, fmt.Errorf("committing analysis for post %d: %w", rec.PostID, err)
	}
	return inserted, nil
}

func deleteTree(ctx context.Context, tx *sql.Tx, postID int64) error {
	statements := []string{
		`DELETE FROM analysis_operations WHERE factor_id IN (
			SELECT f.id FROM analysis_factors f
			JOIN analysis_contexts c ON f.context_id = c.id
			JOIN analyses a ON c.analysis_id = a.id
			WHERE a.post_id = ?)`,
		`DELETE FROM analysis_factors WHERE context_id IN (
			SELECT c.id FROM analysis_contexts c
			JOIN analyses a ON c.analysis_id = a.id
			WHERE a.post_id = ?)`,
		`DELETE FROM analysis_contexts WHERE analysis_id IN (
			SELECT id FROM analyses WHERE post_id = ?)`,
		`DELETE FROM analyses WHERE post_id = ?`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, postID); err != nil {
			return err
		}
	}
	return nil
}

func insertTree(ctx context.Context, tx *sql.Tx, rec engine.AnalysisRecord) (engine.AnalysisRecord, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO analyses (post_id, score, analyzed_at) VALUES (?, ?, ?)",
		rec.PostID, rec.Score, rec.AnalyzedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return rec, err
	}
	rec.ID, err = res.LastInsertId()
	if err != nil {
		return rec, err
	}

	for ci := range rec.Contexts {
		c := &rec.Contexts[ci]
		res, err := tx.ExecContext(ctx,
			"INSERT INTO analysis_contexts (analysis_id, name, display_name, weight, score) VALUES (?, ?, ?, ?, ?)",
			rec.ID, c.Name, c.DisplayName, c.Weight, c.Score,
		)
		if err != nil {
			return rec, err
		}
		if c.ID, err = res.LastInsertId(); err != nil {
			return rec, err
		}

		for fi := range c.Factors {
			f := &c.Factors[fi]
			res, err := tx.ExecContext(ctx,
				"INSERT INTO analysis_factors (context_id, name, display_name, weight, score) VALUES (?, ?, ?, ?, ?)",
				c.ID, f.Name, f.DisplayName, f.Weight, f.Score,
			)
			if err != nil {
				return rec, err
			}
			if f.ID, err = res.LastInsertId(); err != nil {
				return rec, err
			}

			for oi := range f.Operations {
				op := &f.Operations[oi]
				payload, err := json.Marshal(op.Payload)
				if err != nil {
					return rec, fmt.Errorf("encoding payload for %s: %w", op.Name, err)
				}
				codes, err := json.Marshal(op.Suggestions)
				if err != nil {
					return rec, fmt.Errorf("encoding suggestions for %s: %w", op.Name, err)
				}
				res, err := tx.ExecContext(ctx,
					`INSERT INTO analysis_operations
					(factor_id, name, display_name, weight, score, success, external_api, payload, suggestions)
					VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
					f.ID, op.Name, op.DisplayName, op.Weight, op.Score, op.Success,
					op.ExternalAPIAllowed, string(payload), string(codes),
				)
				if err != nil {
					return rec, err
				}
				if op.ID, err = res.LastInsertId(); err != nil {
					return rec, err
				}
			}
		}
	}
	return rec, nil
}

// LatestAnalysis loads the most recent stored tree for a post, or nil when
// the post has never been analyzed.
func (db *DB) LatestAnalysis(ctx context.Context, postID int64) (*engine.AnalysisRecord, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, post_id, score, analyzed_at FROM analyses WHERE post_id = ? ORDER BY id DESC LIMIT 1",
		postID,
	)
	var rec engine.AnalysisRecord
	var analyzedAt string
	err := row.Scan(&rec.ID, &rec.PostID, &rec.Score, &analyzedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.AnalyzedAt, _ = time.Parse(time.RFC3339, analyzedAt)

	contexts, err := db.contextsByAnalysisID(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	rec.Contexts = contexts
	return &rec, nil
}

func (db *DB) contextsByAnalysisID(ctx context.Context, analysisID int64) ([]engine.ContextRecord, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, name, display_name, weight, score FROM analysis_contexts WHERE analysis_id = ? ORDER BY id",
		analysisID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var contexts []engine.ContextRecord
	for rows.Next() {
		var c engine.ContextRecord
		if err := rows.Scan(&c.ID, &c.Name, &c.DisplayName, &c.Weight, &c.Score); err != nil {
			return nil, err
		}
		contexts = append(contexts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range contexts {
		factors, err := db.factorsByContextID(ctx, contexts[i].ID)
		if err != nil {
			return nil, err
		}
		contexts[i].Factors = factors
	}
	return contexts, nil
}

func (db *DB) factorsByContextID(ctx context.Context, contextID int64) ([]engine.FactorRecord, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, name, display_name, weight, score FROM analysis_factors WHERE context_id = ? ORDER BY id",
		contextID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var factors []engine.FactorRecord
	for rows.Next() {
		var f engine.FactorRecord
		if err := rows.Scan(&f.ID, &f.Name, &f.DisplayName, &f.Weight, &f.Score); err != nil {
			return nil, err
		}
		factors = append(factors, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range factors {
		ops, err := db.operationsByFactorID(ctx, factors[i].ID)
		if err != nil {
			return nil, err
		}
		factors[i].Operations = ops
	}
	return factors, nil
}

func (db *DB) operationsByFactorID(ctx context.Context, factorID int64) ([]engine.OperationRecord, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, display_name, weight, score, success, external_api, payload, suggestions
		 FROM analysis_operations WHERE factor_id = ? ORDER BY id`,
		factorID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ops []engine.OperationRecord
	for rows.Next() {
		var op engine.OperationRecord
		var payload, codes sql.NullString
		if err := rows.Scan(&op.ID, &op.Name, &op.DisplayName, &op.Weight, &op.Score,
			&op.Success, &op.ExternalAPIAllowed, &payload, &codes); err != nil {
			return nil, err
		}
		if payload.Valid && payload.String != "" {
			_ = json.Unmarshal([]byte(payload.String), &op.Payload)
		}
		if codes.Valid && codes.String != "" {
			_ = json.Unmarshal([]byte(codes.String), &op.Suggestions)
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// SavePostMeta upserts the lightweight score mirror for a post.
func (db *DB) SavePostMeta(ctx context.Context, postID int64, score float64, analyzedAt time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO post_meta (post_id, score, analyzed_at) VALUES (?, ?, ?)
		 ON CONFLICT(post_id) DO UPDATE SET score = excluded.score, analyzed_at = excluded.analyzed_at`,
		postID, score, analyzedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// PostMeta returns the mirrored score for a post, or nil when absent.
func (db *DB) PostMeta(ctx context.Context, postID int64) (*PostMetaRow, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT post_id, score, analyzed_at FROM post_meta WHERE post_id = ?", postID,
	)
	var m PostMetaRow
	var analyzedAt string
	err := row.Scan(&m.PostID, &m.Score, &analyzedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.AnalyzedAt, _ = time.Parse(time.RFC3339, analyzedAt)
	return &m, nil
}

// PostMetaRow is the lightweight score mirror read by batch scheduling and
// external consumers.
type PostMetaRow struct {
	PostID     int64     `json:"post_id"`
	Score      float64   `json:"score"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}
