package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/fairchance/jobintake/internal/filter"
	"github.com/fairchance/jobintake/internal/model"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const jobsTable = "jobs"

var jobColumns = []string{
	"id", "url", "direct_url", "title", "company", "location",
	"grade", "grade_reason", "category", "ceo_match", "salary",
	"requires_diploma", "requires_license", "date_posted", "expiration_date",
	"apply_time_estimate", "submitted_at", "submitted_by", "needs_review",
	"frequent_hirer_tag",
}

// SQLStore persists jobs in SQLite or Postgres and publishes a ChangeEvent
// for every successful write.
type SQLStore struct {
	db     *sql.DB
	sb     sq.StatementBuilderType
	hub    *Hub
	window time.Duration
	now    func() time.Time
}

var _ model.JobStore = (*SQLStore)(nil)

// Open connects to the database named by driver and dsn and ensures the
// jobs table exists. For SQLite, dsn is a file path.
func Open(ctx context.Context, driver, dsn string, expiryWindow time.Duration) (*SQLStore, error) {
	switch driver {
	case DriverSQLite, "":
		return NewSQLiteStore(ctx, dsn, expiryWindow)
	case DriverPostgres:
		return NewPostgresStore(ctx, dsn, expiryWindow)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
func NewSQLiteStore(ctx context.Context, dbPath string, expiryWindow time.Duration) (*SQLStore, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", dbPath))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// SQLite allows one writer; serializing connections avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return newSQLStore(ctx, db, sq.Question, sqliteSchema, expiryWindow)
}

// NewPostgresStore connects to Postgres through the pgx database/sql driver.
func NewPostgresStore(ctx context.Context, dsn string, expiryWindow time.Duration) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres db: %w", err)
	}
	return newSQLStore(ctx, db, sq.Dollar, postgresSchema, expiryWindow)
}

func newSQLStore(ctx context.Context, db *sql.DB, ph sq.PlaceholderFormat, schema string, window time.Duration) (*SQLStore, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating jobs table: %w", err)
	}
	return &SQLStore{
		db:     db,
		sb:     sq.StatementBuilder.PlaceholderFormat(ph),
		hub:    NewHub(),
		window: window,
		now:    time.Now,
	}, nil
}

const sqliteSchema = `CREATE TABLE IF NOT EXISTS jobs (
	id                  TEXT PRIMARY KEY,
	url                 TEXT NOT NULL,
	direct_url          TEXT NOT NULL,
	title               TEXT NOT NULL,
	company             TEXT NOT NULL,
	location            TEXT NOT NULL,
	grade               TEXT NOT NULL,
	grade_reason        TEXT NOT NULL DEFAULT '',
	category            TEXT NOT NULL,
	ceo_match           TEXT NOT NULL DEFAULT '',
	salary              TEXT NOT NULL,
	requires_diploma    INTEGER NOT NULL DEFAULT 0,
	requires_license    INTEGER NOT NULL DEFAULT 0,
	date_posted         TEXT NOT NULL,
	expiration_date     TEXT,
	apply_time_estimate TEXT NOT NULL DEFAULT '',
	submitted_at        INTEGER NOT NULL,
	submitted_by        TEXT NOT NULL,
	needs_review        INTEGER NOT NULL DEFAULT 0,
	frequent_hirer_tag  TEXT
)`

const postgresSchema = `CREATE TABLE IF NOT EXISTS jobs (
	id                  TEXT PRIMARY KEY,
	url                 TEXT NOT NULL,
	direct_url          TEXT NOT NULL,
	title               TEXT NOT NULL,
	company             TEXT NOT NULL,
	location            TEXT NOT NULL,
	grade               TEXT NOT NULL,
	grade_reason        TEXT NOT NULL DEFAULT '',
	category            TEXT NOT NULL,
	ceo_match           TEXT NOT NULL DEFAULT '',
	salary              TEXT NOT NULL,
	requires_diploma    BOOLEAN NOT NULL DEFAULT FALSE,
	requires_license    BOOLEAN NOT NULL DEFAULT FALSE,
	date_posted         TEXT NOT NULL,
	expiration_date     TEXT,
	apply_time_estimate TEXT NOT NULL DEFAULT '',
	submitted_at        BIGINT NOT NULL,
	submitted_by        TEXT NOT NULL,
	needs_review        BOOLEAN NOT NULL DEFAULT FALSE,
	frequent_hirer_tag  TEXT
)`

// Insert stores a new job.
func (s *SQLStore) Insert(ctx context.Context, job model.Job) error {
	query, args, err := s.sb.Insert(jobsTable).Columns(jobColumns...).Values(
		job.ID, job.URL, job.DirectURL, job.Title, job.Company, job.Location,
		string(job.Grade), job.GradeReason, string(job.Category), job.CEOMatch, job.Salary,
		job.RequiresDiploma, job.RequiresLicense, job.DatePosted, nullString(job.ExpirationDate),
		job.ApplyTimeEstimate, job.SubmittedAt.UnixMilli(), job.SubmittedBy, job.NeedsReview,
		nullString(job.FrequentHirerTag),
	).ToSql()
	if err != nil {
		return fmt.Errorf("building insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting job %s: %w", job.ID, err)
	}
	s.publish(model.ChangeInsert, job.ID)
	return nil
}

// Update applies the non-nil fields of patch to the job with id.
func (s *SQLStore) Update(ctx context.Context, id string, patch model.JobPatch) error {
	set := patchColumns(patch)
	if len(set) == 0 {
		return nil
	}
	query, args, err := s.sb.Update(jobsTable).SetMap(set).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("building update: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating job %s: %w", id, err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}
	s.publish(model.ChangeUpdate, id)
	return nil
}

// Delete removes the job with id.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	query, args, err := s.sb.Delete(jobsTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("building delete: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting job %s: %w", id, err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}
	s.publish(model.ChangeDelete, id)
	return nil
}

// Query returns jobs matching q, newest submission first. Column filters run
// in SQL; the expiration view filter and limit are applied afterwards since
// expiry depends on the clock.
func (s *SQLStore) Query(ctx context.Context, q model.JobQuery) ([]model.Job, error) {
	b := s.sb.Select(jobColumns...).From(jobsTable).OrderBy("submitted_at DESC", "id DESC")
	if q.Grade != "" && q.Grade != "all" {
		b = b.Where(sq.Eq{"grade": q.Grade})
	}
	if q.Category != "" && q.Category != "all" {
		b = b.Where(sq.Eq{"category": q.Category})
	}
	if v, ok := yesNo(q.Diploma); ok {
		b = b.Where(sq.Eq{"requires_diploma": v})
	}
	if v, ok := yesNo(q.License); ok {
		b = b.Where(sq.Eq{"requires_license": v})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading jobs: %w", err)
	}

	f := filter.NewBoardFilter(q, s.window)
	return f.Apply(jobs), nil
}

// Get returns the job with id.
func (s *SQLStore) Get(ctx context.Context, id string) (model.Job, error) {
	query, args, err := s.sb.Select(jobColumns...).From(jobsTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return model.Job{}, fmt.Errorf("building get: %w", err)
	}
	job, err := scanJob(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Job{}, fmt.Errorf("%w: %s", model.ErrJobNotFound, id)
	}
	return job, err
}

// ExistingURLs returns every stored url and direct url.
func (s *SQLStore) ExistingURLs(ctx context.Context) (map[string]struct{}, error) {
	query, args, err := s.sb.Select("url", "direct_url").From(jobsTable).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building url query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying urls: %w", err)
	}
	defer rows.Close()

	urls := make(map[string]struct{})
	for rows.Next() {
		var u, d string
		if err := rows.Scan(&u, &d); err != nil {
			return nil, fmt.Errorf("scanning urls: %w", err)
		}
		urls[u] = struct{}{}
		if d != "" {
			urls[d] = struct{}{}
		}
	}
	return urls, rows.Err()
}

// Subscribe returns a channel of change events. Slow subscribers miss events
// rather than block writers.
func (s *SQLStore) Subscribe() (<-chan model.ChangeEvent, func()) {
	ch := s.hub.Subscribe()
	return ch, func() { s.hub.Unsubscribe(ch) }
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) publish(op model.ChangeOp, id string) {
	s.hub.Publish(model.ChangeEvent{Op: op, JobID: id, At: s.now()})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(r rowScanner) (model.Job, error) {
	var (
		job         model.Job
		grade, cat  string
		exp, tag    sql.NullString
		submittedMs int64
	)
	err := r.Scan(
		&job.ID, &job.URL, &job.DirectURL, &job.Title, &job.Company, &job.Location,
		&grade, &job.GradeReason, &cat, &job.CEOMatch, &job.Salary,
		&job.RequiresDiploma, &job.RequiresLicense, &job.DatePosted, &exp,
		&job.ApplyTimeEstimate, &submittedMs, &job.SubmittedBy, &job.NeedsReview,
		&tag,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Job{}, err
		}
		return model.Job{}, fmt.Errorf("scanning job: %w", err)
	}
	job.Grade = model.Grade(grade)
	job.Category = model.Category(cat)
	job.SubmittedAt = time.UnixMilli(submittedMs).UTC()
	if exp.Valid {
		job.ExpirationDate = &exp.String
	}
	if tag.Valid {
		job.FrequentHirerTag = &tag.String
	}
	return job, nil
}

func patchColumns(p model.JobPatch) map[string]any {
	set := make(map[string]any)
	put := func(col string, v any) { set[col] = v }
	if p.Title != nil {
		put("title", *p.Title)
	}
	if p.Company != nil {
		put("company", *p.Company)
	}
	if p.Location != nil {
		put("location", *p.Location)
	}
	if p.Grade != nil {
		put("grade", string(*p.Grade))
	}
	if p.GradeReason != nil {
		put("grade_reason", *p.GradeReason)
	}
	if p.Category != nil {
		put("category", string(*p.Category))
	}
	if p.Salary != nil {
		put("salary", *p.Salary)
	}
	if p.RequiresDiploma != nil {
		put("requires_diploma", *p.RequiresDiploma)
	}
	if p.RequiresLicense != nil {
		put("requires_license", *p.RequiresLicense)
	}
	if p.ExpirationDate != nil {
		// An empty string clears the date.
		put("expiration_date", nullString(p.ExpirationDate))
	}
	if p.NeedsReview != nil {
		put("needs_review", *p.NeedsReview)
	}
	return set
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", model.ErrJobNotFound, id)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func yesNo(sel string) (bool, bool) {
	switch sel {
	case "yes":
		return true, true
	case "no":
		return false, true
	}
	return false, false
}
