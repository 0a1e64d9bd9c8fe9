// ABOUTME: SEO page persistence on SQLiteStore
// ABOUTME: Slugs are validated here and must be unique across pages

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidSlug is returned for a slug that is not lowercase letters, digits, and hyphens
var ErrInvalidSlug = errors.New("slug must be lowercase letters, digits, and hyphens")

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidSlug reports whether slug is usable as a page address.
func ValidSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}

const pageColumns = `id, slug, title, meta_description, body_markdown, published, created_at, updated_at`

// CreatePage inserts a new SEO page.
func (s *SQLiteStore) CreatePage(ctx context.Context, p *SEOPage) error {
	if !ValidSlug(p.Slug) {
		return ErrInvalidSlug
	}

	query := `
		INSERT INTO seo_pages (` + pageColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		p.ID,
		p.Slug,
		p.Title,
		p.MetaDescription,
		p.BodyMarkdown,
		boolToInt(p.Published),
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("inserting page: %w", err)
	}

	s.logger.Debug("created page", "id", p.ID, "slug", p.Slug)
	return nil
}

// GetPage retrieves a page by ID.
func (s *SQLiteStore) GetPage(ctx context.Context, id string) (*SEOPage, error) {
	return s.getPage(ctx, "id", id)
}

// GetPageBySlug retrieves a page by slug.
func (s *SQLiteStore) GetPageBySlug(ctx context.Context, slug string) (*SEOPage, error) {
	return s.getPage(ctx, "slug", slug)
}

func (s *SQLiteStore) getPage(ctx context.Context, column, value string) (*SEOPage, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM seo_pages WHERE `+column+` = ?`, value)
	p, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying page: %w", err)
	}
	return p, nil
}

// ListPages returns pages ordered by slug.
func (s *SQLiteStore) ListPages(ctx context.Context, limit int) ([]*SEOPage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pageColumns+` FROM seo_pages ORDER BY slug LIMIT ?`, clampLimit(limit, 100, 1000))
	if err != nil {
		return nil, fmt.Errorf("querying pages: %w", err)
	}
	defer rows.Close()

	var pages []*SEOPage
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// UpdatePage overwrites the mutable fields of an existing page.
func (s *SQLiteStore) UpdatePage(ctx context.Context, p *SEOPage) error {
	if !ValidSlug(p.Slug) {
		return ErrInvalidSlug
	}

	query := `
		UPDATE seo_pages
		SET slug = ?, title = ?, meta_description = ?, body_markdown = ?, published = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		p.Slug,
		p.Title,
		p.MetaDescription,
		p.BodyMarkdown,
		boolToInt(p.Published),
		formatTime(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("updating page: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePage removes a page.
func (s *SQLiteStore) DeletePage(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "seo_pages", id)
}

func scanPage(row rowScanner) (*SEOPage, error) {
	var p SEOPage
	var published int
	var createdAt, updatedAt string

	err := row.Scan(
		&p.ID,
		&p.Slug,
		&p.Title,
		&p.MetaDescription,
		&p.BodyMarkdown,
		&published,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Published = published != 0
	if err := parseTimes(createdAt, &p.CreatedAt, updatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
