package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/bms-ged/backend/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// InsertComplaint persists a complaint row and returns the assigned id.
// Pictures are serialized to JSON only at the column boundary.
func (s *Store) InsertComplaint(ctx context.Context, c models.Complaint) (int64, error) {
	pictures := c.Pictures
	if pictures == nil {
		pictures = []string{}
	}
	picturesJSON, err := json.Marshal(pictures)
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.Pool.QueryRow(ctx, `
		INSERT INTO complaints (building_id, submitter_id, category, title, description,
			rephrased_description, status, solution, assigned_to, pictures, sentiment,
			created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW(),NOW())
		RETURNING id
	`, c.BuildingID, c.SubmitterID, c.Category, c.Title, c.Description,
		c.RephrasedDescription, c.Status, c.Solution, c.AssignedTo, string(picturesJSON), c.Sentiment).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) GetComplaint(ctx context.Context, id int64) (models.Complaint, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, building_id, submitter_id, category, title, description,
			rephrased_description, status, solution, assigned_to, pictures, sentiment,
			created_at, updated_at
		FROM complaints WHERE id = $1
	`, id)
	return scanComplaint(row)
}

func (s *Store) ListComplaints(ctx context.Context, status, category, q string, limit, offset int) ([]models.Complaint, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, building_id, submitter_id, category, title, description,
		rephrased_description, status, solution, assigned_to, pictures, sentiment,
		created_at, updated_at
		FROM complaints`
	var args []any
	var wheres []string
	if status != "" {
		args = append(args, status)
		wheres = append(wheres, fmt.Sprintf("status = $%d", len(args)))
	}
	if category != "" {
		args = append(args, category)
		wheres = append(wheres, fmt.Sprintf("category = $%d", len(args)))
	}
	if q != "" {
		args = append(args, "%"+q+"%")
		wheres = append(wheres, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT $" + fmt.Sprint(len(args)+1) + " OFFSET $" + fmt.Sprint(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListResolvedWithSolutions feeds the knowledge-base backfill. Only resolved
// rows with a recorded solution qualify for ingestion.
func (s *Store) ListResolvedWithSolutions(ctx context.Context) ([]models.Complaint, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, building_id, submitter_id, category, title, description,
			rephrased_description, status, solution, assigned_to, pictures, sentiment,
			created_at, updated_at
		FROM complaints
		WHERE status = $1 AND solution <> ''
		ORDER BY id ASC
	`, models.StatusResolved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanComplaint(row pgx.Row) (models.Complaint, error) {
	var (
		c            models.Complaint
		picturesJSON string
	)
	if err := row.Scan(&c.ID, &c.BuildingID, &c.SubmitterID, &c.Category, &c.Title,
		&c.Description, &c.RephrasedDescription, &c.Status, &c.Solution, &c.AssignedTo,
		&picturesJSON, &c.Sentiment, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.Complaint{}, err
	}
	c.Pictures = []string{}
	if picturesJSON != "" {
		var urls []string
		if err := json.Unmarshal([]byte(picturesJSON), &urls); err == nil && urls != nil {
			c.Pictures = urls
		}
	}
	return c, nil
}

// ListRespondersBySkill returns roster users carrying the given skill,
// ordered by name.
func (s *Store) ListRespondersBySkill(ctx context.Context, skill string, limit int) ([]models.Responder, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, email FROM users
		WHERE $1 = ANY(skills)
		ORDER BY name ASC
		LIMIT $2
	`, skill, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Responder
	for rows.Next() {
		r := models.Responder{Skill: skill}
		if err := rows.Scan(&r.ID, &r.Name, &r.Email); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	row := s.Pool.QueryRow(ctx, `SELECT id, name, email, role, skills FROM users WHERE id = $1`, id)
	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Skills); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetActiveLeaseByTenant(ctx context.Context, tenantID int64) (*models.Lease, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, tenant_id, unit_id, active, started_at FROM leases
		WHERE tenant_id = $1 AND active = TRUE
		ORDER BY started_at DESC
		LIMIT 1
	`, tenantID)
	var l models.Lease
	if err := row.Scan(&l.ID, &l.TenantID, &l.UnitID, &l.Active, &l.StartedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (s *Store) GetUnit(ctx context.Context, id int64) (*models.Unit, error) {
	row := s.Pool.QueryRow(ctx, `SELECT id, name, owner_id, building_id FROM units WHERE id = $1`, id)
	var u models.Unit
	if err := row.Scan(&u.ID, &u.Name, &u.OwnerID, &u.BuildingID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) InsertNotification(ctx context.Context, n models.Notification) error {
	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO notifications (id, recipient_id, title, body, category, read, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, n.ID, n.RecipientID, n.Title, n.Body, n.Category, n.Read, createdAt)
	return err
}
