package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/custodia-labs/overlap-core/internal/core/domain"
	"github.com/custodia-labs/overlap-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CheckStore = (*CheckStore)(nil)

// CheckStore implements driven.CheckStore using PostgreSQL
type CheckStore struct {
	db *DB
}

// NewCheckStore creates a new CheckStore
func NewCheckStore(db *DB) *CheckStore {
	return &CheckStore{db: db}
}

const checkColumns = `id, organization_id, title, word_count, status, sensitivity,
	check_articles, check_web, check_youtube, store_embeddings, overall_score,
	risk_level, chunk_count, sources_checked, match_count, estimated_cost,
	error_message, created_at, started_at, completed_at, expires_at`

// Create inserts a new check
func (s *CheckStore) Create(ctx context.Context, check *domain.Check) error {
	query := `
		INSERT INTO checks (` + checkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	_, err := s.db.ExecContext(ctx, query,
		check.ID,
		check.OrganizationID,
		NullString(strPtrIfSet(check.Title)),
		check.WordCount,
		check.Status,
		check.Sensitivity,
		check.CheckArticles,
		check.CheckWeb,
		check.CheckYouTube,
		check.StoreEmbeddings,
		check.OverallScore,
		NullString(strPtrIfSet(string(check.RiskLevel))),
		check.ChunkCount,
		check.SourcesChecked,
		check.MatchCount,
		check.EstimatedCost,
		NullString(strPtrIfSet(check.ErrorMessage)),
		check.CreatedAt,
		NullTime(check.StartedAt),
		NullTime(check.CompletedAt),
		NullTime(check.ExpiresAt),
	)
	return err
}

// Get retrieves a check by ID without matches
func (s *CheckStore) Get(ctx context.Context, id string) (*domain.Check, error) {
	query := `SELECT ` + checkColumns + ` FROM checks WHERE id = $1`
	return s.scanCheck(s.db.QueryRowContext(ctx, query, id))
}

// GetWithMatches retrieves a check with its matches attached
func (s *CheckStore) GetWithMatches(ctx context.Context, id string) (*domain.Check, error) {
	check, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, check_id, source_id, source_type, title, url, similarity,
			max_score, avg_score, chunk_count, risk_level, snippet, explanation,
			ts, matched_chunks
		FROM matches
		WHERE check_id = $1
		ORDER BY similarity DESC
	`
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.AggregatedMatch
		var title, url, snippet, explanation, ts sql.NullString
		var chunksJSON []byte

		err := rows.Scan(
			&m.ID,
			&m.CheckID,
			&m.SourceID,
			&m.SourceType,
			&title,
			&url,
			&m.Similarity,
			&m.MaxScore,
			&m.AvgScore,
			&m.ChunkCount,
			&m.RiskLevel,
			&snippet,
			&explanation,
			&ts,
			&chunksJSON,
		)
		if err != nil {
			return nil, err
		}

		m.Title = title.String
		m.URL = url.String
		m.Snippet = snippet.String
		m.Explanation = explanation.String
		m.Timestamp = ts.String
		if len(chunksJSON) > 0 {
			if err := json.Unmarshal(chunksJSON, &m.MatchedChunks); err != nil {
				return nil, err
			}
		}
		check.Matches = append(check.Matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return check, nil
}

// Update persists mutable check fields
func (s *CheckStore) Update(ctx context.Context, check *domain.Check) error {
	query := `
		UPDATE checks SET
			status = $2,
			overall_score = $3,
			risk_level = $4,
			chunk_count = $5,
			sources_checked = $6,
			match_count = $7,
			estimated_cost = $8,
			error_message = $9,
			started_at = $10,
			completed_at = $11,
			expires_at = $12
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		check.ID,
		check.Status,
		check.OverallScore,
		NullString(strPtrIfSet(string(check.RiskLevel))),
		check.ChunkCount,
		check.SourcesChecked,
		check.MatchCount,
		check.EstimatedCost,
		NullString(strPtrIfSet(check.ErrorMessage)),
		NullTime(check.StartedAt),
		NullTime(check.CompletedAt),
		NullTime(check.ExpiresAt),
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CompleteWithMatches stores matches and the completed check atomically
func (s *CheckStore) CompleteWithMatches(ctx context.Context, check *domain.Check, matches []domain.AggregatedMatch) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		// Reprocessing replaces any previous matches
		if _, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE check_id = $1`, check.ID); err != nil {
			return err
		}

		insert := `
			INSERT INTO matches (id, check_id, source_id, source_type, title, url,
				similarity, max_score, avg_score, chunk_count, risk_level, snippet,
				explanation, ts, matched_chunks)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		`
		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, m := range matches {
			chunksJSON, err := json.Marshal(m.MatchedChunks)
			if err != nil {
				return err
			}
			_, err = stmt.ExecContext(ctx,
				m.ID,
				check.ID,
				m.SourceID,
				m.SourceType,
				NullString(strPtrIfSet(m.Title)),
				NullString(strPtrIfSet(m.URL)),
				m.Similarity,
				m.MaxScore,
				m.AvgScore,
				m.ChunkCount,
				m.RiskLevel,
				NullString(strPtrIfSet(m.Snippet)),
				NullString(strPtrIfSet(m.Explanation)),
				NullString(strPtrIfSet(m.Timestamp)),
				chunksJSON,
			)
			if err != nil {
				return err
			}
		}

		update := `
			UPDATE checks SET
				status = $2,
				overall_score = $3,
				risk_level = $4,
				chunk_count = $5,
				sources_checked = $6,
				match_count = $7,
				estimated_cost = $8,
				completed_at = $9,
				expires_at = $10
			WHERE id = $1
		`
		result, err := tx.ExecContext(ctx, update,
			check.ID,
			check.Status,
			check.OverallScore,
			NullString(strPtrIfSet(string(check.RiskLevel))),
			check.ChunkCount,
			check.SourcesChecked,
			check.MatchCount,
			check.EstimatedCost,
			NullTime(check.CompletedAt),
			NullTime(check.ExpiresAt),
		)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// MarkFailed marks the check failed and removes partial matches
func (s *CheckStore) MarkFailed(ctx context.Context, checkID, errorMessage string) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE check_id = $1`, checkID); err != nil {
			return err
		}
		query := `
			UPDATE checks SET status = $2, error_message = $3, completed_at = NOW()
			WHERE id = $1
		`
		result, err := tx.ExecContext(ctx, query, checkID, domain.CheckStatusFailed, errorMessage)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// DeleteExpired removes checks whose expiry passed
func (s *CheckStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM checks WHERE expires_at IS NOT NULL AND expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	return int(affected), err
}

func (s *CheckStore) scanCheck(row *sql.Row) (*domain.Check, error) {
	var c domain.Check
	var title, riskLevel, errorMessage sql.NullString
	var startedAt, completedAt, expiresAt sql.NullTime

	err := row.Scan(
		&c.ID,
		&c.OrganizationID,
		&title,
		&c.WordCount,
		&c.Status,
		&c.Sensitivity,
		&c.CheckArticles,
		&c.CheckWeb,
		&c.CheckYouTube,
		&c.StoreEmbeddings,
		&c.OverallScore,
		&riskLevel,
		&c.ChunkCount,
		&c.SourcesChecked,
		&c.MatchCount,
		&c.EstimatedCost,
		&errorMessage,
		&c.CreatedAt,
		&startedAt,
		&completedAt,
		&expiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	c.Title = title.String
	c.RiskLevel = domain.RiskLevel(riskLevel.String)
	c.ErrorMessage = errorMessage.String
	c.StartedAt = TimePtr(startedAt)
	c.CompletedAt = TimePtr(completedAt)
	c.ExpiresAt = TimePtr(expiresAt)

	return &c, nil
}

func strPtrIfSet(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
