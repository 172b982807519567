package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/khrees2412/careerflow/pkg/models"
)

// Setting keys.
const (
	SettingLanguage = "language"
)

// Repository reads and writes the local snapshot. Every write replaces the
// stored state in one transaction.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Application operations

func (r *Repository) SaveApplications(ctx context.Context, apps []models.Application) error {
	return saveDocuments(ctx, r.db, "cached_applications", apps, func(a models.Application) models.ID { return a.ID })
}

func (r *Repository) LoadApplications(ctx context.Context) ([]models.Application, error) {
	return loadDocuments[models.Application](ctx, r.db, "cached_applications")
}

// Job description operations

func (r *Repository) SaveJobDescriptions(ctx context.Context, jds []models.JobDescription) error {
	return saveDocuments(ctx, r.db, "cached_jds", jds, func(jd models.JobDescription) models.ID { return jd.ID })
}

func (r *Repository) LoadJobDescriptions(ctx context.Context) ([]models.JobDescription, error) {
	return loadDocuments[models.JobDescription](ctx, r.db, "cached_jds")
}

// saveDocuments replaces table with items stored as JSON in list order.
func saveDocuments[T any](ctx context.Context, db *sql.DB, table string, items []T, idOf func(T) models.ID) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+table+" (id, position, document) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert into %s: %w", table, err)
	}
	defer stmt.Close()

	for i, item := range items {
		doc, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to encode %s row: %w", table, err)
		}
		if _, err := stmt.ExecContext(ctx, idOf(item).String(), i, string(doc)); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func loadDocuments[T any](ctx context.Context, db *sql.DB, table string) ([]T, error) {
	rows, err := db.QueryContext(ctx, "SELECT document FROM "+table+" ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var item T
		if err := json.Unmarshal([]byte(doc), &item); err != nil {
			return nil, fmt.Errorf("failed to decode %s row: %w", table, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Notification operations

func (r *Repository) SaveNotifications(ctx context.Context, entries []models.Notification) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM notifications"); err != nil {
		return fmt.Errorf("failed to clear notifications: %w", err)
	}
	query := `INSERT INTO notifications (id, position, title, message, created_at, is_read)
			  VALUES (?, ?, ?, ?, ?, ?)`
	for i, n := range entries {
		if _, err := tx.ExecContext(ctx, query, n.ID, i, n.Title, n.Message, n.Timestamp.UTC(), n.Read); err != nil {
			return fmt.Errorf("failed to insert notification: %w", err)
		}
	}
	return tx.Commit()
}

func (r *Repository) LoadNotifications(ctx context.Context) ([]models.Notification, error) {
	query := `SELECT id, title, message, created_at, is_read FROM notifications ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	entries := []models.Notification{}
	for rows.Next() {
		var (
			n       models.Notification
			message sql.NullString
			created time.Time
		)
		if err := rows.Scan(&n.ID, &n.Title, &message, &created, &n.Read); err != nil {
			return nil, err
		}
		n.Message = message.String
		n.Timestamp = created.Local()
		entries = append(entries, n)
	}
	return entries, rows.Err()
}

// Setting operations

func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	query := `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
			  ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query, key, value, time.Now().UTC())
	return err
}

// GetSetting returns the stored value and whether the key exists.
func (r *Repository) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key=?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}
