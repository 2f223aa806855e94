package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jobsift/jobsift/internal/model"
)

// ErrNotFound is returned when a lookup matches no stored posting.
var ErrNotFound = errors.New("posting not found")

// SQLiteStore persists canonical postings in a SQLite database.
// (source, external_id) is enforced unique at the schema level.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS postings (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	source           TEXT NOT NULL,
	external_id      TEXT NOT NULL,
	title            TEXT NOT NULL,
	company          TEXT NOT NULL DEFAULT '',
	location         TEXT NOT NULL DEFAULT '',
	description      TEXT NOT NULL DEFAULT '',
	external_url     TEXT NOT NULL DEFAULT '',
	job_type         TEXT NOT NULL DEFAULT '',
	work_mode        TEXT NOT NULL DEFAULT '',
	experience_level TEXT NOT NULL DEFAULT '',
	salary_json      TEXT NOT NULL DEFAULT '',
	skills_json      TEXT NOT NULL DEFAULT '[]',
	requirements_json TEXT NOT NULL DEFAULT '[]',
	benefits_json    TEXT NOT NULL DEFAULT '[]',
	quality_score    INTEGER NOT NULL DEFAULT 0,
	content_hash     TEXT NOT NULL DEFAULT '',
	duplicate_of     TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT 'active',
	posted_date      DATETIME,
	scraped_at       DATETIME NOT NULL,
	last_updated     DATETIME NOT NULL,
	last_synced_at   DATETIME NOT NULL,
	UNIQUE(source, external_id)
);
CREATE INDEX IF NOT EXISTS idx_postings_content_hash ON postings(content_hash);
CREATE INDEX IF NOT EXISTS idx_postings_status ON postings(status);
`

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the
// postings schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating postings schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// validate rejects records that would be unusable once stored. A failing
// record is skipped and counted, never allowed to abort a batch.
func validate(p *model.Posting) error {
	if p.Source == "" {
		return errors.New("missing source")
	}
	if p.ExternalID == "" {
		return errors.New("missing external id")
	}
	if p.Title == "" {
		return errors.New("missing title")
	}
	return nil
}

// Upsert inserts the posting or, when (source, external_id) already exists,
// overwrites the mutable fields in place. The update path refreshes
// last_updated and last_synced_at but preserves the original scraped_at,
// status and duplicate_of. Returns whether a new row was created.
func (s *SQLiteStore) Upsert(ctx context.Context, p *model.Posting) (bool, error) {
	if err := validate(p); err != nil {
		return false, fmt.Errorf("validating posting %s: %w", p.Key(), err)
	}

	now := time.Now().UTC()
	if p.ScrapedAt.IsZero() {
		p.ScrapedAt = now
	}
	p.LastUpdated = now
	p.LastSyncedAt = now

	existing, err := s.FindBySourceID(ctx, p.Source, p.ExternalID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return false, err
	}

	salaryJSON := ""
	if p.Salary != nil {
		b, err := json.Marshal(p.Salary)
		if err != nil {
			return false, fmt.Errorf("encoding salary for %s: %w", p.Key(), err)
		}
		salaryJSON = string(b)
	}
	skills, err := encodeList(p.RequiredSkills)
	if err != nil {
		return false, fmt.Errorf("encoding skills for %s: %w", p.Key(), err)
	}
	reqs, err := encodeList(p.Requirements)
	if err != nil {
		return false, fmt.Errorf("encoding requirements for %s: %w", p.Key(), err)
	}
	benefits, err := encodeList(p.Benefits)
	if err != nil {
		return false, fmt.Errorf("encoding benefits for %s: %w", p.Key(), err)
	}

	if existing != nil {
		_, err = s.db.ExecContext(ctx, `
			UPDATE postings SET
				title = ?, company = ?, location = ?, description = ?,
				external_url = ?, job_type = ?, work_mode = ?, experience_level = ?,
				salary_json = ?, skills_json = ?, requirements_json = ?, benefits_json = ?,
				quality_score = ?, content_hash = ?, posted_date = ?,
				last_updated = ?, last_synced_at = ?
			WHERE source = ? AND external_id = ?`,
			p.Title, p.Company, p.Location, p.Description,
			p.ExternalURL, p.JobType, string(p.WorkMode), string(p.ExperienceLevel),
			salaryJSON, skills, reqs, benefits,
			p.QualityScore, p.ContentHash, nullTime(p.PostedDate),
			p.LastUpdated, p.LastSyncedAt,
			string(p.Source), p.ExternalID,
		)
		if err != nil {
			return false, fmt.Errorf("updating posting %s: %w", p.Key(), err)
		}
		p.ID = existing.ID
		p.ScrapedAt = existing.ScrapedAt
		p.Status = existing.Status
		p.DuplicateOf = existing.DuplicateOf
		return false, nil
	}

	if p.Status == "" {
		p.Status = model.StatusActive
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO postings (
			source, external_id, title, company, location, description,
			external_url, job_type, work_mode, experience_level,
			salary_json, skills_json, requirements_json, benefits_json,
			quality_score, content_hash, duplicate_of, status,
			posted_date, scraped_at, last_updated, last_synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(p.Source), p.ExternalID, p.Title, p.Company, p.Location, p.Description,
		p.ExternalURL, p.JobType, string(p.WorkMode), string(p.ExperienceLevel),
		salaryJSON, skills, reqs, benefits,
		p.QualityScore, p.ContentHash, p.DuplicateOf, string(p.Status),
		nullTime(p.PostedDate), p.ScrapedAt, p.LastUpdated, p.LastSyncedAt,
	)
	if err != nil {
		return false, fmt.Errorf("inserting posting %s: %w", p.Key(), err)
	}
	if id, err := res.LastInsertId(); err == nil {
		p.ID = id
	}
	return true, nil
}

// SaveBatch persists one aggregation batch. Each record's outcome is
// independent: validation failures are counted and skipped, and a record
// whose content hash already exists under a different source is stored
// flagged as a duplicate of the earlier record rather than discarded.
func (s *SQLiteStore) SaveBatch(ctx context.Context, postings []model.Posting) model.BatchResult {
	var result model.BatchResult

	for i := range postings {
		p := &postings[i]

		existing, err := s.FindBySourceID(ctx, p.Source, p.ExternalID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			result.Errors++
			continue
		}

		if existing == nil && p.ContentHash != "" {
			prior, err := s.FindByContentHash(ctx, p.ContentHash)
			if err != nil && !errors.Is(err, ErrNotFound) {
				result.Errors++
				continue
			}
			if prior != nil && prior.Source != p.Source {
				p.Status = model.StatusDuplicate
				p.DuplicateOf = prior.Key()
			}
		}

		created, err := s.Upsert(ctx, p)
		if err != nil {
			result.Errors++
			continue
		}
		switch {
		case !created:
			result.Updated++
		case p.Status == model.StatusDuplicate:
			result.Duplicates++
		default:
			result.Saved++
		}
	}

	return result
}

const selectColumns = `
	id, source, external_id, title, company, location, description,
	external_url, job_type, work_mode, experience_level,
	salary_json, skills_json, requirements_json, benefits_json,
	quality_score, content_hash, duplicate_of, status,
	posted_date, scraped_at, last_updated, last_synced_at`

// FindBySourceID looks a posting up by its composite identity.
func (s *SQLiteStore) FindBySourceID(ctx context.Context, source model.Source, externalID string) (*model.Posting, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM postings WHERE source = ? AND external_id = ?`,
		string(source), externalID,
	)
	return scanPosting(row)
}

// FindByContentHash returns the earliest-scraped non-duplicate posting with
// the given fingerprint, or ErrNotFound.
func (s *SQLiteStore) FindByContentHash(ctx context.Context, hash string) (*model.Posting, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM postings
		 WHERE content_hash = ? AND status != ?
		 ORDER BY scraped_at ASC LIMIT 1`,
		hash, string(model.StatusDuplicate),
	)
	return scanPosting(row)
}

// Get fetches a posting by row id.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*model.Posting, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM postings WHERE id = ?`, id)
	return scanPosting(row)
}

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	Source   model.Source
	WorkMode model.WorkMode
	JobType  string
	Status   model.Status
	Search   string // substring match over title and company
	Limit    int
	Offset   int
}

// List returns postings matching the filter, newest first. Unless a status
// is requested explicitly, duplicate-flagged postings are excluded.
func (s *SQLiteStore) List(ctx context.Context, f ListFilter) ([]model.Posting, error) {
	query := `SELECT ` + selectColumns + ` FROM postings WHERE 1=1`
	var args []any

	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	} else {
		query += ` AND status != ?`
		args = append(args, string(model.StatusDuplicate))
	}
	if f.Source != "" {
		query += ` AND source = ?`
		args = append(args, string(f.Source))
	}
	if f.WorkMode != "" {
		query += ` AND work_mode = ?`
		args = append(args, string(f.WorkMode))
	}
	if f.JobType != "" {
		query += ` AND job_type = ?`
		args = append(args, f.JobType)
	}
	if f.Search != "" {
		query += ` AND (title LIKE ? OR company LIKE ?)`
		like := "%" + f.Search + "%"
		args = append(args, like, like)
	}

	query += ` ORDER BY posted_date DESC, scraped_at DESC`
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing postings: %w", err)
	}
	defer rows.Close()

	var out []model.Posting
	for rows.Next() {
		p, err := scanPostingRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Stats summarizes stored postings for the stats endpoint.
type Stats struct {
	Total      int64            `json:"total"`
	BySource   map[string]int64 `json:"bySource"`
	ByWorkMode map[string]int64 `json:"byWorkMode"`
	ByJobType  map[string]int64 `json:"byJobType"`
	ByStatus   map[string]int64 `json:"byStatus"`
}

// Stats counts postings grouped by source, work mode, job type and status.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		BySource:   make(map[string]int64),
		ByWorkMode: make(map[string]int64),
		ByJobType:  make(map[string]int64),
		ByStatus:   make(map[string]int64),
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM postings`).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("counting postings: %w", err)
	}

	groups := []struct {
		column string
		dest   map[string]int64
	}{
		{"source", stats.BySource},
		{"work_mode", stats.ByWorkMode},
		{"job_type", stats.ByJobType},
		{"status", stats.ByStatus},
	}
	for _, g := range groups {
		rows, err := s.db.QueryContext(ctx,
			`SELECT `+g.column+`, COUNT(*) FROM postings GROUP BY `+g.column)
		if err != nil {
			return nil, fmt.Errorf("grouping by %s: %w", g.column, err)
		}
		for rows.Next() {
			var key string
			var count int64
			if err := rows.Scan(&key, &count); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning %s group: %w", g.column, err)
			}
			g.dest[key] = count
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	return stats, nil
}

// Cleanup hard-deletes postings scraped more than olderThan ago. This is the
// only row-deleting operation; everything else soft-flags.
func (s *SQLiteStore) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM postings WHERE scraped_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleaning up postings older than %v: %w", olderThan, err)
	}
	return res.RowsAffected()
}

// Deactivate flags a posting expired without deleting it.
func (s *SQLiteStore) Deactivate(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE postings SET status = ?, last_updated = ? WHERE id = ?`,
		string(model.StatusExpired), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("deactivating posting %d: %w", id, err)
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

// UpdateDetails patches the structured fields the detail enricher extracts.
func (s *SQLiteStore) UpdateDetails(ctx context.Context, id int64, requirements, skills []string) error {
	reqs, err := encodeList(requirements)
	if err != nil {
		return fmt.Errorf("encoding requirements: %w", err)
	}
	sk, err := encodeList(skills)
	if err != nil {
		return fmt.Errorf("encoding skills: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE postings SET requirements_json = ?, skills_json = ?, last_updated = ? WHERE id = ?`,
		reqs, sk, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating details for posting %d: %w", id, err)
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

// --- scanning helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosting(row *sql.Row) (*model.Posting, error) {
	p, err := scanInto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func scanPostingRows(rows *sql.Rows) (*model.Posting, error) {
	return scanInto(rows)
}

func scanInto(sc rowScanner) (*model.Posting, error) {
	var (
		p            model.Posting
		source       string
		workMode     string
		expLevel     string
		status       string
		salaryJSON   string
		skillsJSON   string
		reqsJSON     string
		benefitsJSON string
		postedDate   sql.NullTime
	)
	err := sc.Scan(
		&p.ID, &source, &p.ExternalID, &p.Title, &p.Company, &p.Location, &p.Description,
		&p.ExternalURL, &p.JobType, &workMode, &expLevel,
		&salaryJSON, &skillsJSON, &reqsJSON, &benefitsJSON,
		&p.QualityScore, &p.ContentHash, &p.DuplicateOf, &status,
		&postedDate, &p.ScrapedAt, &p.LastUpdated, &p.LastSyncedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Source = model.Source(source)
	p.WorkMode = model.WorkMode(workMode)
	p.ExperienceLevel = model.ExperienceLevel(expLevel)
	p.Status = model.Status(status)
	if postedDate.Valid {
		t := postedDate.Time
		p.PostedDate = &t
	}
	if salaryJSON != "" {
		var sal model.Salary
		if err := json.Unmarshal([]byte(salaryJSON), &sal); err == nil {
			p.Salary = &sal
		}
	}
	p.RequiredSkills = decodeList(skillsJSON)
	p.Requirements = decodeList(reqsJSON)
	p.Benefits = decodeList(benefitsJSON)

	return &p, nil
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
