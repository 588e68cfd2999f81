// Package sfstore persists projects in SQLite.
package sfstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"oss.terrastruct.com/xdefer"

	"oss.terrastruct.com/stockflow/sfview"
)

//go:embed schema.sql
var schema string

var (
	ErrNotFound = errors.New("project not found")
	// ErrConflict is returned by Save when the project changed since the
	// caller read it.
	ErrConflict = errors.New("project version conflict")
)

type Project struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	View      *sfview.View `json:"view"`
	Version   int          `json:"version"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Summary is a project without its view.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (_ *Store, err error) {
	defer xdefer.Errorf(&err, "failed to open store %q", path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db, now: time.Now}
	if err := s.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Create(ctx context.Context, name string, v *sfview.View) (_ *Project, err error) {
	defer xdefer.Errorf(&err, "failed to create project %q", name)

	if v == nil {
		v = sfview.New()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	p := &Project{
		ID:        uuid.NewString(),
		Name:      name,
		View:      v,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, view, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, b, p.Version, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) Get(ctx context.Context, id string) (_ *Project, err error) {
	defer xdefer.Errorf(&err, "failed to get project %q", id)

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, view, version, created_at, updated_at
		FROM projects
		WHERE id = ?
	`, id)

	var p Project
	var b []byte
	var created, updated int64
	if err := row.Scan(&p.ID, &p.Name, &b, &p.Version, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.View = sfview.New()
	if err := json.Unmarshal(b, p.View); err != nil {
		return nil, err
	}
	p.CreatedAt = time.UnixMilli(created).UTC()
	p.UpdatedAt = time.UnixMilli(updated).UTC()
	return &p, nil
}

// List returns every project, most recently updated first.
func (s *Store) List(ctx context.Context) (_ []Summary, err error) {
	defer xdefer.Errorf(&err, "failed to list projects")

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, version, updated_at
		FROM projects
		ORDER BY updated_at DESC, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []Summary{}
	for rows.Next() {
		var sum Summary
		var updated int64
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Version, &updated); err != nil {
			return nil, err
		}
		sum.UpdatedAt = time.UnixMilli(updated).UTC()
		list = append(list, sum)
	}
	return list, rows.Err()
}

// Save replaces the view of project id if it is still at expectedVersion and
// returns the new version.
func (s *Store) Save(ctx context.Context, id string, v *sfview.View, expectedVersion int) (_ int, err error) {
	defer xdefer.Errorf(&err, "failed to save project %q", id)

	b, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	return s.update(ctx, id, expectedVersion, `view = ?`, b)
}

func (s *Store) Rename(ctx context.Context, id, name string, expectedVersion int) (_ int, err error) {
	defer xdefer.Errorf(&err, "failed to rename project %q to %q", id, name)

	return s.update(ctx, id, expectedVersion, `name = ?`, name)
}

func (s *Store) update(ctx context.Context, id string, expectedVersion int, set string, value interface{}) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET `+set+`, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`, value, s.now().UnixMilli(), id, expectedVersion)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		if _, err := s.version(ctx, id); err != nil {
			return 0, err
		}
		return 0, ErrConflict
	}
	return expectedVersion + 1, nil
}

func (s *Store) version(ctx context.Context, id string) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, `SELECT version FROM projects WHERE id = ?`, id).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return v, err
}

func (s *Store) Delete(ctx context.Context, id string) (err error) {
	defer xdefer.Errorf(&err, "failed to delete project %q", id)

	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
