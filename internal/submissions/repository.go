package submissions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventdesk/backend/internal/models"
)

// Repository persists completed submissions. It satisfies the intake
// session's archive contract.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a submissions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save inserts a completed submission with its answers as JSON.
func (r *Repository) Save(ctx context.Context, sub *models.Submission) error {
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	const q = `INSERT INTO submissions (id, event_name, applicant_id, applicant_name, answers)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, sub.EventName, sub.ApplicantID, sub.ApplicantName, answers).
		Scan(&sub.ID, &sub.CreatedAt)
}

// ListByEvent returns all submissions for an event, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventName string) ([]models.Submission, error) {
	const q = `SELECT id, event_name, applicant_id, applicant_name, answers, created_at
		FROM submissions WHERE event_name = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, eventName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Submission
	for rows.Next() {
		var sub models.Submission
		var answers []byte
		if err := rows.Scan(&sub.ID, &sub.EventName, &sub.ApplicantID, &sub.ApplicantName, &answers, &sub.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(answers, &sub.Answers); err != nil {
			return nil, fmt.Errorf("decode answers for %s: %w", sub.ID, err)
		}
		list = append(list, sub)
	}
	return list, rows.Err()
}

// CountByEvent returns the number of submissions for an event.
func (r *Repository) CountByEvent(ctx context.Context, eventName string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM submissions WHERE event_name = $1`, eventName).Scan(&n)
	return n, err
}
