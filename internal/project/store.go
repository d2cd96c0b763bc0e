package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattjoyce/traduttore/internal/storage"
)

const projectColumns = `id, slug, name, vcs_type, host_type, repository_name, repository_url,
  ssh_url, https_url, default_branch, visibility, webhook_secret, created_at, updated_at`

// Store persists projects in the shared database.
type Store struct {
	db *storage.DB
}

func NewStore(db *storage.DB) *Store {
	return &Store{db: db}
}

// Create inserts p and returns it with ID and timestamps populated.
func (s *Store) Create(ctx context.Context, p Project) (*Project, error) {
	p.Slug = strings.Trim(strings.TrimSpace(p.Slug), "/")
	if p.Slug == "" {
		return nil, fmt.Errorf("project slug is empty")
	}
	if p.VCSType == "" {
		p.VCSType = VCSGit
	}
	if p.HostType == "" {
		p.HostType = HostUnknown
	}
	now := time.Now().UTC()
	nowStr := now.Format(time.RFC3339Nano)

	q := s.db.Rebind(`
INSERT INTO projects(slug, name, vcs_type, host_type, repository_name, repository_url,
  ssh_url, https_url, default_branch, visibility, webhook_secret, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id;
`)
	err := s.db.QueryRowContext(ctx, q,
		p.Slug, p.Name, string(p.VCSType), string(p.HostType), p.RepositoryName, p.RepositoryURL,
		p.SSHURL, p.HTTPSURL, p.DefaultBranch, string(p.Visibility), p.WebhookSecret, nowStr, nowStr,
	).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return &p, nil
}

// Get returns the project with the given ID.
func (s *Store) Get(ctx context.Context, id int64) (*Project, error) {
	return s.queryOne(ctx, "SELECT "+projectColumns+" FROM projects WHERE id = ?;", id)
}

// GetBySlug returns the project whose path equals slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*Project, error) {
	slug = strings.Trim(strings.TrimSpace(slug), "/")
	if slug == "" {
		return nil, ErrNotFound
	}
	return s.queryOne(ctx, "SELECT "+projectColumns+" FROM projects WHERE slug = ?;", slug)
}

// FindByRepositoryName matches the repository full name case-insensitively.
func (s *Store) FindByRepositoryName(ctx context.Context, fullName string) (*Project, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, ErrNotFound
	}
	return s.queryOne(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE LOWER(repository_name) = LOWER(?) ORDER BY id LIMIT 1;",
		fullName)
}

// FindByRepositoryURL matches rawURL against the stored web, SSH and HTTPS
// URLs, ignoring a ".git" suffix and trailing slash on either side.
func (s *Store) FindByRepositoryURL(ctx context.Context, rawURL string) (*Project, error) {
	base := NormalizeURL(rawURL)
	if base == "" {
		return nil, ErrNotFound
	}
	variants := []any{base, base + ".git", base + "/", base + ".git/"}
	in := "?, ?, ?, ?"

	q := "SELECT " + projectColumns + " FROM projects WHERE repository_url IN (" + in +
		") OR ssh_url IN (" + in + ") OR https_url IN (" + in + ") ORDER BY id LIMIT 1;"
	args := make([]any, 0, len(variants)*3)
	for i := 0; i < 3; i++ {
		args = append(args, variants...)
	}
	return s.queryOne(ctx, q, args...)
}

// List returns all projects ordered by ID.
func (s *Store) List(ctx context.Context) ([]*Project, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+projectColumns+" FROM projects ORDER BY id;")
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out, nil
}

// UpdateRepository overwrites the repository descriptor of project id with
// info. The default branch is only filled in when the project has none.
func (s *Store) UpdateRepository(ctx context.Context, id int64, info RepositoryInfo) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	q := s.db.Rebind(`
UPDATE projects SET
  vcs_type = ?,
  host_type = ?,
  repository_name = ?,
  repository_url = ?,
  ssh_url = ?,
  https_url = ?,
  visibility = ?,
  default_branch = CASE WHEN default_branch = '' THEN ? ELSE default_branch END,
  updated_at = ?
WHERE id = ?;
`)
	res, err := s.db.ExecContext(ctx, q,
		string(info.VCSType), string(info.HostType), info.Name, info.URL,
		info.SSHURL, info.HTTPSURL, string(info.Visibility), info.DefaultBranch, now, id,
	)
	if err != nil {
		return fmt.Errorf("update project repository: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project repository: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetWebhookSecret replaces the per-project webhook secret. An empty secret
// clears it so the provider secret applies.
func (s *Store) SetWebhookSecret(ctx context.Context, id int64, secret string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind("UPDATE projects SET webhook_secret = ?, updated_at = ? WHERE id = ?;"),
		secret, now, id)
	if err != nil {
		return fmt.Errorf("update webhook secret: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) queryOne(ctx context.Context, query string, args ...any) (*Project, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(query), args...)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*Project, error) {
	var (
		p                    Project
		vcs, host, vis       string
		createdAt, updatedAt string
	)
	err := row.Scan(
		&p.ID, &p.Slug, &p.Name, &vcs, &host, &p.RepositoryName, &p.RepositoryURL,
		&p.SSHURL, &p.HTTPSURL, &p.DefaultBranch, &vis, &p.WebhookSecret, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan project: %w", err)
	}
	p.VCSType = VCSType(vcs)
	p.HostType = HostType(host)
	p.Visibility = Visibility(vis)
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &p, nil
}
