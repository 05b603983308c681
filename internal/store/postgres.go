// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"quiz-scoring/internal/models"
)

// Postgres implements every store over the quiz schema.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

var (
	_ AppStore           = (*Postgres)(nil)
	_ QuestionStore      = (*Postgres)(nil)
	_ ScoringResultStore = (*Postgres)(nil)
)

func (p *Postgres) FindApp(ctx context.Context, appID int64) (*models.Application, error) {
	var (
		app               models.Application
		appType, strategy sql.NullInt64
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT id, app_name, app_desc, app_type, scoring_strategy
		FROM app
		WHERE id = $1 AND is_delete = 0`, appID).Scan(
		&app.ID, &app.AppName, &app.AppDesc, &appType, &strategy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("app %d: %w", appID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query app %d: %w", appID, err)
	}

	// NULL or unrecognised codes stay empty; scoring rejects the app as
	// misconfigured.
	if appType.Valid {
		app.AppType, _ = models.AppTypeFromCode(appType.Int64)
	}
	if strategy.Valid {
		app.ScoringMode, _ = models.ScoringModeFromCode(strategy.Int64)
	}
	return &app, nil
}

func (p *Postgres) FindQuestionByAppID(ctx context.Context, appID int64) ([]models.QuestionContent, error) {
	var content string
	err := p.db.QueryRowContext(ctx, `
		SELECT question_content
		FROM question
		WHERE app_id = $1 AND is_delete = 0
		ORDER BY id
		LIMIT 1`, appID).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("questions for app %d: %w", appID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query questions for app %d: %w", appID, err)
	}

	var questions []models.QuestionContent
	if err := json.Unmarshal([]byte(content), &questions); err != nil {
		return nil, fmt.Errorf("decode questions for app %d: %w", appID, err)
	}
	return questions, nil
}

func (p *Postgres) ListScoringResultsByAppID(ctx context.Context, appID int64) ([]models.ScoringResult, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, app_id, result_name, result_desc, result_picture, result_score_range, result_prop
		FROM scoring_result
		WHERE app_id = $1 AND is_delete = 0
		ORDER BY id`, appID)
	if err != nil {
		return nil, fmt.Errorf("query scoring results for app %d: %w", appID, err)
	}
	defer rows.Close()

	var results []models.ScoringResult
	for rows.Next() {
		var (
			r       models.ScoringResult
			desc    sql.NullString
			picture sql.NullString
			scoreRg sql.NullInt64
			props   sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.AppID, &r.ResultName, &desc, &picture, &scoreRg, &props); err != nil {
			return nil, fmt.Errorf("scan scoring result: %w", err)
		}
		r.ResultDesc = desc.String
		r.ResultPicture = picture.String
		if scoreRg.Valid {
			v := int(scoreRg.Int64)
			r.ResultScoreRange = &v
		}
		if props.Valid && props.String != "" {
			if err := json.Unmarshal([]byte(props.String), &r.ResultProp); err != nil {
				return nil, fmt.Errorf("decode result_prop for result %d: %w", r.ID, err)
			}
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scoring results: %w", err)
	}
	return results, nil
}
