package meetings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetmate/core/internal/models"
)

// Repository handles meeting persistence in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a meetings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const meetingColumns = `id, users, name, recording, "inProgress", summary, annotation, created_at`

// Insert creates a meeting row and fills its ID and creation time.
func (r *Repository) Insert(ctx context.Context, m *models.Meeting) error {
	const q = `INSERT INTO meetings (users, name, recording, "inProgress")
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, m.Owner, m.Name, m.Recording, m.Status.Flag()).Scan(&m.ID, &m.CreatedAt)
}

// ListByOwner returns the owner's meetings, newest first.
func (r *Repository) ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Meeting, error) {
	q := `SELECT ` + meetingColumns + ` FROM meetings WHERE users = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *m)
	}
	return list, rows.Err()
}

// GetByOwnerAndID returns the meeting or nil when the owner has no such meeting.
func (r *Repository) GetByOwnerAndID(ctx context.Context, owner, id uuid.UUID) (*models.Meeting, error) {
	q := `SELECT ` + meetingColumns + ` FROM meetings WHERE users = $1 AND id = $2`
	m, err := scanMeeting(r.pool.QueryRow(ctx, q, owner, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// UpdateStatus sets "inProgress" for the owner's meeting.
func (r *Repository) UpdateStatus(ctx context.Context, owner, id uuid.UUID, status models.ProcessingStatus) (bool, error) {
	const q = `UPDATE meetings SET "inProgress" = $1 WHERE users = $2 AND id = $3`
	tag, err := r.pool.Exec(ctx, q, status.Flag(), owner, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanMeeting(row pgx.Row) (*models.Meeting, error) {
	var (
		m          models.Meeting
		inProgress *bool
		summary    []byte
		annotation []byte
	)
	if err := row.Scan(&m.ID, &m.Owner, &m.Name, &m.Recording, &inProgress, &summary, &annotation, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Status = models.StatusFromFlag(inProgress)
	if len(summary) > 0 && string(summary) != "null" {
		m.Summary = &models.Summary{}
		if err := json.Unmarshal(summary, m.Summary); err != nil {
			return nil, fmt.Errorf("decode summary of %s: %w", m.ID, err)
		}
	}
	if len(annotation) > 0 {
		if err := json.Unmarshal(annotation, &m.Annotation); err != nil {
			return nil, fmt.Errorf("decode annotation of %s: %w", m.ID, err)
		}
	}
	return &m, nil
}
