package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/deusflow/stablenews/internal/news"
)

// Supported SQL drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// SQLOptions tune the persisted backend.
type SQLOptions struct {
	// Table holding the articles. Defaults to "positive_news".
	Table string
	// StrictKey adds the published string to the natural key, so the same
	// title re-published by a source becomes a separate row.
	StrictKey bool
	// PruneAfter deletes rows fetched longer ago than this on every merge.
	// Zero keeps rows indefinitely.
	PruneAfter time.Duration
	// OnUpsertError is called for every row that fails to persist.
	OnUpsertError func(a news.Article, err error)
}

// SQLStore persists articles in Postgres or SQLite, one row per natural key.
type SQLStore struct {
	db     *sql.DB
	driver string
	opts   SQLOptions
	now    func() time.Time
}

// Stats summarises the persisted table.
type Stats struct {
	Total   int
	Sources map[string]int
	Oldest  time.Time
	Newest  time.Time
}

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// NewSQLStore opens the database, checks the connection and creates the
// schema if needed.
func NewSQLStore(ctx context.Context, driver, dsn string, opts SQLOptions) (*SQLStore, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	if opts.Table == "" {
		opts.Table = "positive_news"
	}
	if !tableName.MatchString(opts.Table) {
		return nil, fmt.Errorf("invalid table name %q", opts.Table)
	}

	if driver == DriverSQLite && !strings.Contains(dsn, "_time_format=") {
		// sortable text timestamps, so fetched_at compares correctly
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_time_format=sqlite"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// one writer at a time; avoids SQLITE_BUSY between pooled connections
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLStore{
		db:     db,
		driver: driver,
		opts:   opts,
		now:    func() time.Time { return time.Now().UTC() },
	}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("sql store connected", "driver", driver, "table", opts.Table)
	return s, nil
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
		natural_key VARCHAR(64) PRIMARY KEY,
		title TEXT NOT NULL,
		summary TEXT NOT NULL,
		url TEXT NOT NULL,
		image_url TEXT NOT NULL DEFAULT '',
		source VARCHAR(200) NOT NULL,
		published TEXT NOT NULL,
		sentiment DOUBLE PRECISION NOT NULL,
		fetched_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_%[1]s_fetched_at ON %[1]s(fetched_at);
	CREATE INDEX IF NOT EXISTS idx_%[1]s_source ON %[1]s(source);
	`, s.opts.Table)

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// NaturalKey identifies "the same article" across runs: the lower-cased
// title and the source, plus the published string in strict mode.
func NaturalKey(a news.Article, strict bool) string {
	parts := []string{news.TitleKey(a.Title), a.Source}
	if strict {
		parts = append(parts, a.Published)
	}
	h := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(h[:])
}

// Merge upserts every article, replacing all fields of an existing row. A
// failing row is logged and skipped; the joined errors are returned once all
// rows have been tried.
func (s *SQLStore) Merge(ctx context.Context, articles []news.Article) error {
	query := s.rebind(fmt.Sprintf(`
		INSERT INTO %s (natural_key, title, summary, url, image_url, source, published, sentiment, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (natural_key) DO UPDATE SET
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			url = EXCLUDED.url,
			image_url = EXCLUDED.image_url,
			source = EXCLUDED.source,
			published = EXCLUDED.published,
			sentiment = EXCLUDED.sentiment,
			fetched_at = EXCLUDED.fetched_at
	`, s.opts.Table))

	var errs []error
	for _, a := range articles {
		if strings.TrimSpace(a.Title) == "" {
			continue
		}
		_, err := s.db.ExecContext(ctx, query,
			NaturalKey(a, s.opts.StrictKey), a.Title, a.Summary, a.URL, a.ImageURL,
			a.Source, a.Published, a.Sentiment, a.FetchedAt.UTC())
		if err != nil {
			slog.Error("failed to upsert article", "title", a.Title, "source", a.Source, "error", err)
			if s.opts.OnUpsertError != nil {
				s.opts.OnUpsertError(a, err)
			}
			errs = append(errs, fmt.Errorf("upsert %q: %w", a.Title, err))
		}
	}

	if s.opts.PruneAfter > 0 {
		if err := s.prune(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (s *SQLStore) prune(ctx context.Context) error {
	cutoff := s.now().Add(-s.opts.PruneAfter)
	query := s.rebind(fmt.Sprintf(`DELETE FROM %s WHERE fetched_at < $1`, s.opts.Table))
	res, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows > 0 {
		slog.Info("pruned old articles", "rows", rows)
	}
	return nil
}

// Snapshot returns all rows, oldest fetch first.
func (s *SQLStore) Snapshot(ctx context.Context) ([]news.Article, error) {
	return s.query(ctx, fmt.Sprintf(`
		SELECT title, summary, url, image_url, source, published, sentiment, fetched_at
		FROM %s
		ORDER BY fetched_at ASC, title ASC
	`, s.opts.Table))
}

// Recent returns the most recently fetched rows.
func (s *SQLStore) Recent(ctx context.Context, limit int) ([]news.Article, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.query(ctx, s.rebind(fmt.Sprintf(`
		SELECT title, summary, url, image_url, source, published, sentiment, fetched_at
		FROM %s
		ORDER BY fetched_at DESC, title ASC
		LIMIT $1
	`, s.opts.Table)), limit)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) ([]news.Article, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	var out []news.Article
	for rows.Next() {
		var a news.Article
		if err := rows.Scan(&a.Title, &a.Summary, &a.URL, &a.ImageURL, &a.Source, &a.Published, &a.Sentiment, &a.FetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		a.FetchedAt = a.FetchedAt.UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

// Stats returns row counts per source and the fetch time range.
func (s *SQLStore) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Sources: make(map[string]int)}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT source, COUNT(*) FROM %s GROUP BY source`, s.opts.Table))
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return st, err
		}
		st.Sources[source] = count
		st.Total += count
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	if st.Total == 0 {
		return st, nil
	}

	var oldest, newest any
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT MIN(fetched_at), MAX(fetched_at) FROM %s`, s.opts.Table))
	if err := row.Scan(&oldest, &newest); err != nil {
		return st, fmt.Errorf("failed to read fetch range: %w", err)
	}
	if st.Oldest, err = scanTime(oldest); err != nil {
		return st, err
	}
	if st.Newest, err = scanTime(newest); err != nil {
		return st, err
	}
	return st, nil
}

// scanTime converts an aggregate timestamp. Postgres returns time.Time;
// SQLite loses the column type on MIN/MAX and returns the stored text.
func scanTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return parseSQLiteTime(t)
	case []byte:
		return parseSQLiteTime(string(t))
	default:
		return time.Time{}, fmt.Errorf("unexpected timestamp type %T", v)
	}
}

var sqliteTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
}

func parseSQLiteTime(s string) (time.Time, error) {
	for _, layout := range sqliteTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var placeholder = regexp.MustCompile(`\$\d+`)

// rebind turns Postgres-style $N placeholders into ? for SQLite. Queries
// must use each placeholder once, in ascending order.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverSQLite {
		return query
	}
	return placeholder.ReplaceAllString(query, "?")
}
