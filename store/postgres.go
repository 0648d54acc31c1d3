package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

const schema = `
CREATE TABLE IF NOT EXISTS uniform_projects (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	customization JSONB NOT NULL,
	current_view TEXT NOT NULL DEFAULT 'shirt',
	status TEXT NOT NULL DEFAULT 'draft'
		CHECK (status IN ('draft', 'sent', 'in_progress', 'completed')),
	customer_name TEXT,
	customer_email TEXT,
	customer_phone TEXT,
	preview_url TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const projectColumns = `id, name, customization, current_view, status,
	COALESCE(customer_name, ''), COALESCE(customer_email, ''), COALESCE(customer_phone, ''),
	COALESCE(preview_url, ''), created_at, updated_at`

// Postgres stores projects in the uniform_projects table.
type Postgres struct {
	db  *sql.DB
	now func() time.Time
}

var _ Repository = (*Postgres)(nil)

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

// Migrate creates the projects table if it does not exist.
func (r *Postgres) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create uniform_projects: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (Project, error) {
	var p Project
	var customization []byte
	var status string
	err := row.Scan(&p.ID, &p.Name, &customization, &p.CurrentView, &status,
		&p.CustomerName, &p.CustomerEmail, &p.CustomerPhone, &p.PreviewURL,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Project{}, err
	}
	p.Status = Status(status)
	if err := json.Unmarshal(customization, &p.Customization); err != nil {
		return Project{}, fmt.Errorf("failed to decode customization of %s: %w", p.ID, err)
	}
	return p, nil
}

func (r *Postgres) Create(ctx context.Context, p Project) (Project, error) {
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if err := p.Validate(); err != nil {
		return Project{}, err
	}
	now := r.now().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt, p.UpdatedAt = now, now
	p.Customization = p.Customization.Normalize()
	customization, err := json.Marshal(p.Customization)
	if err != nil {
		return Project{}, fmt.Errorf("failed to encode customization: %w", err)
	}
	query := `
		INSERT INTO uniform_projects (
			id, name, customization, current_view, status,
			customer_name, customer_email, customer_phone, preview_url, created_at, updated_at
		) VALUES ($1, $2, $3::jsonb, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10, $11)
	`
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.Name, string(customization), p.CurrentView, string(p.Status),
		p.CustomerName, p.CustomerEmail, p.CustomerPhone, p.PreviewURL, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		log.Printf("Database INSERT error for project %s: %v", p.ID, err)
		return Project{}, fmt.Errorf("failed to insert project: %w", err)
	}
	return p, nil
}

func (r *Postgres) Get(ctx context.Context, id string) (Project, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Project{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM uniform_projects WHERE id = $1`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Project{}, fmt.Errorf("failed to get project %s: %w", id, err)
	}
	return p, nil
}

// List returns projects newest first, filtered by status unless empty.
func (r *Postgres) List(ctx context.Context, status Status) ([]Project, error) {
	query := `SELECT ` + projectColumns + ` FROM uniform_projects
		WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()
	projects := make([]Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

func (r *Postgres) Update(ctx context.Context, id string, u Update) (Project, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Project{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := uuid.Parse(id); err != nil {
		return Project{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	row := tx.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM uniform_projects WHERE id = $1 FOR UPDATE`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Project{}, fmt.Errorf("failed to get project %s: %w", id, err)
	}
	p = u.Apply(p, r.now().UTC())
	if err := p.Validate(); err != nil {
		return Project{}, err
	}
	customization, err := json.Marshal(p.Customization)
	if err != nil {
		return Project{}, fmt.Errorf("failed to encode customization: %w", err)
	}
	query := `
		UPDATE uniform_projects SET
			name = $2, customization = $3::jsonb, current_view = $4, status = $5,
			customer_name = NULLIF($6, ''), customer_email = NULLIF($7, ''),
			customer_phone = NULLIF($8, ''), preview_url = NULLIF($9, ''), updated_at = $10
		WHERE id = $1
	`
	_, err = tx.ExecContext(ctx, query,
		p.ID, p.Name, string(customization), p.CurrentView, string(p.Status),
		p.CustomerName, p.CustomerEmail, p.CustomerPhone, p.PreviewURL, p.UpdatedAt)
	if err != nil {
		return Project{}, fmt.Errorf("failed to update project %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return Project{}, fmt.Errorf("failed to commit project %s: %w", id, err)
	}
	return p, nil
}

func (r *Postgres) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM uniform_projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete project %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (r *Postgres) Stats(ctx context.Context) (Stats, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM uniform_projects GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count projects: %w", err)
	}
	defer rows.Close()
	var s Stats
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return Stats{}, fmt.Errorf("failed to scan project count: %w", err)
		}
		s.add(Status(status), n)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("failed to count projects: %w", err)
	}
	return s, nil
}
