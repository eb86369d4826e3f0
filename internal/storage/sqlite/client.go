package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/afs-framework/backend/internal/storage"
	"github.com/afs-framework/backend/internal/storage/models"
	"github.com/afs-framework/backend/pkg/logger"
	"github.com/afs-framework/backend/pkg/retry"
)

type Client struct {
	db       *sql.DB
	retryCfg retry.Config
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{
		db: db,
		// sqlite holds one writer at a time; a second writer sees
		// SQLITE_BUSY and is worth a short backoff.
		retryCfg: retry.Config{
			Attempts:  3,
			BaseDelay: 25 * time.Millisecond,
			MaxDelay:  250 * time.Millisecond,
			Retryable: retryableWrite,
			Logger:    logger.GetLogger(),
		},
	}, nil
}

func retryableWrite(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
	}
	return false
}

func (c *Client) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := retry.Do(ctx, c.retryCfg, func() error {
		var err error
		res, err = c.db.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS assessments (
		id TEXT PRIMARY KEY,
		team_name TEXT NOT NULL,
		email TEXT,
		company TEXT,
		consultant TEXT,
		status TEXT NOT NULL DEFAULT 'DRAFT',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		completion_date INTEGER,
		duration_minutes INTEGER DEFAULT 0,
		ip_address TEXT,
		user_agent TEXT,
		overall_score REAL DEFAULT 0,
		foundational_score REAL DEFAULT 0,
		transformation_score REAL DEFAULT 0,
		enterprise_score REAL DEFAULT 0,
		governance_score REAL DEFAULT 0,
		deviq_classification TEXT,
		results_json TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_assessments_status ON assessments(status);
	CREATE INDEX IF NOT EXISTS idx_assessments_created ON assessments(created_at);

	CREATE TABLE IF NOT EXISTS responses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		assessment_id TEXT NOT NULL,
		question_id TEXT NOT NULL,
		score INTEGER NOT NULL CHECK (score BETWEEN 1 AND 4),
		notes TEXT,
		response_time_seconds INTEGER DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		UNIQUE(assessment_id, question_id),
		FOREIGN KEY (assessment_id) REFERENCES assessments(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_responses_assessment ON responses(assessment_id);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) CreateAssessment(ctx context.Context, a *models.Assessment) error {
	query := `
		INSERT INTO assessments (id, team_name, email, company, consultant, status,
			created_at, updated_at, duration_minutes, ip_address, user_agent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.exec(
		ctx,
		query,
		a.ID,
		a.TeamName,
		a.Email,
		a.Company,
		a.Consultant,
		a.Status,
		a.CreatedAt.Unix(),
		a.UpdatedAt.Unix(),
		a.DurationMinutes,
		a.IPAddress,
		a.UserAgent,
	)

	if err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}

	logger.Debug("Assessment created", zap.String("assessment_id", a.ID), zap.String("team", a.TeamName))
	return nil
}

const assessmentColumns = `id, team_name, email, company, consultant, status,
	created_at, updated_at, completion_date, duration_minutes, ip_address, user_agent,
	overall_score, foundational_score, transformation_score, enterprise_score, governance_score,
	deviq_classification, results_json`

func (c *Client) GetAssessment(ctx context.Context, id string) (*models.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE id = ?`

	a, err := scanAssessment(c.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	return a, nil
}

func (c *Client) UpdateAssessment(ctx context.Context, a *models.Assessment) error {
	query := `
		UPDATE assessments SET
			team_name = ?, email = ?, company = ?, consultant = ?, status = ?,
			updated_at = ?, completion_date = ?, duration_minutes = ?,
			overall_score = ?, foundational_score = ?, transformation_score = ?,
			enterprise_score = ?, governance_score = ?, deviq_classification = ?, results_json = ?
		WHERE id = ?
	`

	var completionDate any
	if a.CompletionDate != nil {
		completionDate = a.CompletionDate.Unix()
	}

	res, err := c.exec(
		ctx,
		query,
		a.TeamName,
		a.Email,
		a.Company,
		a.Consultant,
		a.Status,
		a.UpdatedAt.Unix(),
		completionDate,
		a.DurationMinutes,
		a.OverallScore,
		a.FoundationalScore,
		a.TransformationScore,
		a.EnterpriseScore,
		a.GovernanceScore,
		a.Classification,
		a.ResultsJSON,
		a.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update assessment: %w", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (c *Client) DeleteAssessment(ctx context.Context, id string) error {
	res, err := c.exec(ctx, `DELETE FROM assessments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete assessment: %w", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return storage.ErrNotFound
	}

	logger.Debug("Assessment deleted", zap.String("assessment_id", id))
	return nil
}

func (c *Client) ListAssessments(ctx context.Context, filters models.ListFilters) ([]*models.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments`

	var args []any
	if filters.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, filters.Status)
	}
	query += ` ORDER BY created_at DESC`

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, filters.Offset)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	var assessments []*models.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		assessments = append(assessments, a)
	}

	return assessments, rows.Err()
}

func (c *Client) UpsertResponse(ctx context.Context, r *models.Response) error {
	query := `
		INSERT INTO responses (assessment_id, question_id, score, notes, response_time_seconds, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(assessment_id, question_id) DO UPDATE SET
			score = excluded.score,
			notes = excluded.notes,
			response_time_seconds = excluded.response_time_seconds,
			updated_at = excluded.updated_at
	`

	_, err := c.exec(
		ctx,
		query,
		r.AssessmentID,
		r.QuestionID,
		r.Score,
		r.Notes,
		r.ResponseTimeSeconds,
		r.CreatedAt.Unix(),
		r.UpdatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to upsert response: %w", err)
	}

	logger.Debug("Response saved",
		zap.String("assessment_id", r.AssessmentID),
		zap.String("question_id", r.QuestionID),
		zap.Int("score", r.Score),
	)

	return nil
}

func (c *Client) GetResponses(ctx context.Context, assessmentID string) ([]*models.Response, error) {
	query := `
		SELECT id, assessment_id, question_id, score, notes, response_time_seconds, created_at, updated_at
		FROM responses
		WHERE assessment_id = ?
		ORDER BY question_id
	`

	rows, err := c.db.QueryContext(ctx, query, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get responses: %w", err)
	}
	defer rows.Close()

	var responses []*models.Response
	for rows.Next() {
		var r models.Response
		var notes sql.NullString
		var createdAt, updatedAt int64

		err := rows.Scan(&r.ID, &r.AssessmentID, &r.QuestionID, &r.Score, &notes, &r.ResponseTimeSeconds, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.Notes = notes.String
		r.CreatedAt = time.Unix(createdAt, 0)
		r.UpdatedAt = time.Unix(updatedAt, 0)
		responses = append(responses, &r)
	}

	return responses, rows.Err()
}

func (c *Client) GetStats(ctx context.Context) (*models.AssessmentStats, error) {
	stats := &models.AssessmentStats{
		ByStatus:         make(map[string]int),
		ByClassification: make(map[string]int),
	}

	rows, err := c.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM assessments GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to get status counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	classRows, err := c.db.QueryContext(ctx, `
		SELECT deviq_classification, COUNT(*), AVG(overall_score)
		FROM assessments
		WHERE status = ? AND deviq_classification != ''
		GROUP BY deviq_classification
	`, models.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to get classification counts: %w", err)
	}
	defer classRows.Close()

	var weightedSum float64
	var completed int
	for classRows.Next() {
		var classification string
		var count int
		var avg float64
		if err := classRows.Scan(&classification, &count, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		stats.ByClassification[classification] = count
		weightedSum += avg * float64(count)
		completed += count
	}
	if err := classRows.Err(); err != nil {
		return nil, err
	}

	if completed > 0 {
		stats.AvgOverallScore = weightedSum / float64(completed)
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row rowScanner) (*models.Assessment, error) {
	var a models.Assessment
	var email, company, consultant, ipAddress, userAgent sql.NullString
	var classification, resultsJSON sql.NullString
	var createdAt, updatedAt int64
	var completionDate sql.NullInt64

	err := row.Scan(
		&a.ID,
		&a.TeamName,
		&email,
		&company,
		&consultant,
		&a.Status,
		&createdAt,
		&updatedAt,
		&completionDate,
		&a.DurationMinutes,
		&ipAddress,
		&userAgent,
		&a.OverallScore,
		&a.FoundationalScore,
		&a.TransformationScore,
		&a.EnterpriseScore,
		&a.GovernanceScore,
		&classification,
		&resultsJSON,
	)
	if err != nil {
		return nil, err
	}

	a.Email = email.String
	a.Company = company.String
	a.Consultant = consultant.String
	a.IPAddress = ipAddress.String
	a.UserAgent = userAgent.String
	a.Classification = classification.String
	a.ResultsJSON = resultsJSON.String
	a.CreatedAt = time.Unix(createdAt, 0)
	a.UpdatedAt = time.Unix(updatedAt, 0)
	if completionDate.Valid {
		t := time.Unix(completionDate.Int64, 0)
		a.CompletionDate = &t
	}

	return &a, nil
}
