package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/umputun/form-spam/app/storage/engine"
	"github.com/umputun/form-spam/lib/spamcheck"
)

// submission types
const (
	TypeForm    = "form"
	TypeComment = "comment"
)

// Submissions is a storage for scored submissions
type Submissions struct {
	*engine.SQL
	engine.RWLocker
}

// Submission is a persisted submission with its verdict
type Submission struct {
	ID          string               `db:"id" json:"id"`
	GID         string               `db:"gid" json:"-"`
	Type        string               `db:"type" json:"type"`
	FormID      string               `db:"form_id" json:"form_id,omitempty"`
	IP          string               `db:"ip" json:"ip,omitempty"`
	UserAgent   string               `db:"user_agent" json:"user_agent,omitempty"`
	ContentJSON string               `db:"content" json:"-"`
	Content     spamcheck.Submission `db:"-" json:"content"`
	Text        string               `db:"text" json:"text"` // normalized text, as scored
	Score       float64              `db:"score" json:"score"`
	Spam        bool                 `db:"spam" json:"spam"`
	Method      string               `db:"method" json:"method"`
	DetailsJSON string               `db:"details" json:"-"`
	Details     spamcheck.Stages     `db:"-" json:"details"`
	EmailSent   bool                 `db:"email_sent" json:"email_sent"`
	CreatedAt   time.Time            `db:"created_at" json:"created_at"`
}

// ListRequest is a filter for List. Zero values mean no filtering.
type ListRequest struct {
	Spam   *bool
	Type   string
	Limit  int
	Offset int
}

// Stats is an aggregated view of stored submissions
type Stats struct {
	Total      int         `json:"total"`
	Normal     int         `json:"normal"`
	Spam       int         `json:"spam"`
	ByType     []TypeStat  `json:"by_type"`
	DailyTrend []DailyStat `json:"daily_trend"`
}

// TypeStat is a number of submissions of a type
type TypeStat struct {
	Type  string `db:"type" json:"type"`
	Count int    `db:"count" json:"count"`
}

// DailyStat is a number of submissions per day
type DailyStat struct {
	Date   string `db:"date" json:"date"`
	Total  int    `db:"total" json:"total"`
	Normal int    `db:"normal" json:"normal"`
	Spam   int    `db:"spam" json:"spam"`
}

// MaxStatsDays is the widest window of Stats, wider or non-positive means all-time stats
const MaxStatsDays = 365

// submissions-related command constants
const (
	CmdCreateSubmissionsTable engine.DBCmd = iota + 300
	CmdCreateSubmissionsIndexes
	CmdAddSubmission
	CmdGetSubmission
	CmdSetSubmissionSpam
	CmdSetSubmissionEmailSent
	CmdDeleteSubmission
	CmdCleanupSubmissions
	CmdDailyTrend
)

var submissionsQueries = engine.NewQueryMap().
	Add(CmdCreateSubmissionsTable, engine.Query{
		Sqlite: `CREATE TABLE IF NOT EXISTS submissions (
			id TEXT PRIMARY KEY,
			gid TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL DEFAULT 'form',
			form_id TEXT NOT NULL DEFAULT '',
			ip TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			text TEXT NOT NULL DEFAULT '',
			score REAL NOT NULL DEFAULT 0,
			spam BOOLEAN NOT NULL DEFAULT 0,
			method TEXT NOT NULL DEFAULT '',
			details TEXT NOT NULL DEFAULT '',
			email_sent BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		Postgres: `CREATE TABLE IF NOT EXISTS submissions (
			id TEXT PRIMARY KEY,
			gid TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL DEFAULT 'form',
			form_id TEXT NOT NULL DEFAULT '',
			ip TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			text TEXT NOT NULL DEFAULT '',
			score DOUBLE PRECISION NOT NULL DEFAULT 0,
			spam BOOLEAN NOT NULL DEFAULT false,
			method TEXT NOT NULL DEFAULT '',
			details TEXT NOT NULL DEFAULT '',
			email_sent BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}).
	AddSame(CmdCreateSubmissionsIndexes, `
		CREATE INDEX IF NOT EXISTS idx_submissions_gid_created ON submissions(gid, created_at);
		CREATE INDEX IF NOT EXISTS idx_submissions_gid_spam ON submissions(gid, spam);
		CREATE INDEX IF NOT EXISTS idx_submissions_gid_type ON submissions(gid, type)
	`).
	AddSame(CmdAddSubmission, `INSERT INTO submissions
		(id, gid, type, form_id, ip, user_agent, content, text, score, spam, method, details, email_sent, created_at)
		VALUES (:id, :gid, :type, :form_id, :ip, :user_agent, :content, :text, :score, :spam, :method, :details, :email_sent, :created_at)`).
	AddSame(CmdGetSubmission, `SELECT * FROM submissions WHERE gid = ? AND id = ?`).
	AddSame(CmdSetSubmissionSpam, `UPDATE submissions SET spam = ? WHERE gid = ? AND id = ?`).
	AddSame(CmdSetSubmissionEmailSent, `UPDATE submissions SET email_sent = ? WHERE gid = ? AND id = ?`).
	AddSame(CmdDeleteSubmission, `DELETE FROM submissions WHERE gid = ? AND id = ?`).
	AddSame(CmdCleanupSubmissions, `DELETE FROM submissions WHERE gid = ? AND created_at < ?`).
	Add(CmdDailyTrend, engine.Query{
		// sqlite keeps timestamps as text starting with the date
		Sqlite: `SELECT substr(created_at, 1, 10) AS date, COUNT(*) AS total,
			SUM(CASE WHEN spam THEN 0 ELSE 1 END) AS normal, SUM(CASE WHEN spam THEN 1 ELSE 0 END) AS spam
			FROM submissions WHERE %s GROUP BY substr(created_at, 1, 10) ORDER BY date ASC`,
		Postgres: `SELECT to_char(created_at, 'YYYY-MM-DD') AS date, COUNT(*) AS total,
			SUM(CASE WHEN spam THEN 0 ELSE 1 END) AS normal, SUM(CASE WHEN spam THEN 1 ELSE 0 END) AS spam
			FROM submissions WHERE %s GROUP BY to_char(created_at, 'YYYY-MM-DD') ORDER BY date ASC`,
	})

// NewSubmissions creates a new Submissions storage
func NewSubmissions(ctx context.Context, db *engine.SQL) (*Submissions, error) {
	if db == nil {
		return nil, errors.New("db connection is nil")
	}
	res := &Submissions{SQL: db, RWLocker: db.MakeLock()}
	cfg := engine.TableConfig{
		Name:          "submissions",
		CreateTable:   CmdCreateSubmissionsTable,
		CreateIndexes: CmdCreateSubmissionsIndexes,
		MigrateFunc:   res.migrate,
		QueriesMap:    submissionsQueries,
	}
	if err := engine.InitTable(ctx, db, cfg); err != nil {
		return nil, fmt.Errorf("failed to init submissions storage: %w", err)
	}
	return res, nil
}

// Add stores a scored submission. Empty id, type and creation time are filled in,
// the stored record is returned.
func (s *Submissions) Add(ctx context.Context, sub Submission) (Submission, error) {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.Type == "" {
		sub.Type = TypeForm
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	sub.CreatedAt = sub.CreatedAt.UTC()
	sub.GID = s.GID()

	content, err := json.Marshal(sub.Content)
	if err != nil {
		return Submission{}, fmt.Errorf("failed to marshal content: %w", err)
	}
	sub.ContentJSON = string(content)
	details, err := json.Marshal(sub.Details)
	if err != nil {
		return Submission{}, fmt.Errorf("failed to marshal details: %w", err)
	}
	sub.DetailsJSON = string(details)

	query, err := submissionsQueries.Pick(s.Type(), CmdAddSubmission)
	if err != nil {
		return Submission{}, fmt.Errorf("failed to get add query: %w", err)
	}

	s.Lock()
	defer s.Unlock()
	if _, err := s.NamedExecContext(ctx, query, sub); err != nil {
		return Submission{}, fmt.Errorf("failed to add submission %s: %w", sub.ID, err)
	}
	log.Printf("[DEBUG] submission %s stored, type:%s, spam:%v, score:%.2f", sub.ID, sub.Type, sub.Spam, sub.Score)
	return sub, nil
}

// Get returns a submission by id, ErrNotFound if it doesn't exist
func (s *Submissions) Get(ctx context.Context, id string) (Submission, error) {
	query, err := submissionsQueries.Pick(s.Type(), CmdGetSubmission)
	if err != nil {
		return Submission{}, fmt.Errorf("failed to get select query: %w", err)
	}

	s.RLock()
	defer s.RUnlock()
	var res Submission
	if err := s.GetContext(ctx, &res, s.Adopt(query), s.GID(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Submission{}, fmt.Errorf("failed to get submission %s: %w", id, err)
	}
	if err := res.decode(); err != nil {
		return Submission{}, err
	}
	return res, nil
}

// List returns submissions matching the request, newest first, and the total number of matching records
func (s *Submissions) List(ctx context.Context, req ListRequest) ([]Submission, int, error) {
	where, args := s.filter(req)

	s.RLock()
	defer s.RUnlock()

	var total int
	countQuery := s.Adopt("SELECT COUNT(*) FROM submissions WHERE " + where)
	if err := s.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	query := "SELECT * FROM submissions WHERE " + where + " ORDER BY created_at DESC"
	if req.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, req.Limit, max(req.Offset, 0))
	}

	res := []Submission{}
	if err := s.SelectContext(ctx, &res, s.Adopt(query), args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}
	for i := range res {
		if err := res[i].decode(); err != nil {
			return nil, 0, err
		}
	}
	return res, total, nil
}

// SetSpam moves a submission to spam (true) or to normal (false)
func (s *Submissions) SetSpam(ctx context.Context, id string, spam bool) error {
	if err := s.update(ctx, CmdSetSubmissionSpam, id, spam); err != nil {
		return fmt.Errorf("failed to set spam=%v: %w", spam, err)
	}
	log.Printf("[INFO] submission %s marked as spam:%v", id, spam)
	return nil
}

// MarkEmailSent sets the email_sent flag of a submission
func (s *Submissions) MarkEmailSent(ctx context.Context, id string) error {
	if err := s.update(ctx, CmdSetSubmissionEmailSent, id, true); err != nil {
		return fmt.Errorf("failed to mark email sent: %w", err)
	}
	return nil
}

// Delete removes a submission by id
func (s *Submissions) Delete(ctx context.Context, id string) error {
	query, err := submissionsQueries.Pick(s.Type(), CmdDeleteSubmission)
	if err != nil {
		return fmt.Errorf("failed to get delete query: %w", err)
	}

	s.Lock()
	defer s.Unlock()
	res, err := s.ExecContext(ctx, s.Adopt(query), s.GID(), id)
	if err != nil {
		return fmt.Errorf("failed to delete submission %s: %w", id, err)
	}
	return affected(res, id)
}

// Cleanup removes submissions older than the given age, returns the number of removed records
func (s *Submissions) Cleanup(ctx context.Context, age time.Duration) (int64, error) {
	if age <= 0 {
		return 0, fmt.Errorf("invalid cleanup age %v", age)
	}
	query, err := submissionsQueries.Pick(s.Type(), CmdCleanupSubmissions)
	if err != nil {
		return 0, fmt.Errorf("failed to get cleanup query: %w", err)
	}

	s.Lock()
	defer s.Unlock()
	res, err := s.ExecContext(ctx, s.Adopt(query), s.GID(), time.Now().UTC().Add(-age))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup submissions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n > 0 {
		log.Printf("[INFO] removed %d submissions older than %v", n, age)
	}
	return n, nil
}

// Stats returns counts of stored submissions for the last days, all-time if days not in [1, MaxStatsDays]
func (s *Submissions) Stats(ctx context.Context, days int) (Stats, error) {
	where, args := "gid = ?", []any{s.GID()}
	if days > 0 && days <= MaxStatsDays {
		where += " AND created_at >= ?"
		args = append(args, time.Now().UTC().AddDate(0, 0, -days))
	}

	s.RLock()
	defer s.RUnlock()

	res := Stats{ByType: []TypeStat{}, DailyTrend: []DailyStat{}}
	var counts struct {
		Total int           `db:"total"`
		Spam  sql.NullInt64 `db:"spam"`
	}
	countQuery := s.Adopt("SELECT COUNT(*) AS total, SUM(CASE WHEN spam THEN 1 ELSE 0 END) AS spam FROM submissions WHERE " + where)
	if err := s.GetContext(ctx, &counts, countQuery, args...); err != nil {
		return Stats{}, fmt.Errorf("failed to count submissions: %w", err)
	}
	res.Total, res.Spam = counts.Total, int(counts.Spam.Int64)
	res.Normal = res.Total - res.Spam

	typeQuery := s.Adopt("SELECT type, COUNT(*) AS count FROM submissions WHERE " + where +
		" GROUP BY type ORDER BY count DESC, type ASC")
	if err := s.SelectContext(ctx, &res.ByType, typeQuery, args...); err != nil {
		return Stats{}, fmt.Errorf("failed to get stats by type: %w", err)
	}

	trendQuery, err := submissionsQueries.Pick(s.Type(), CmdDailyTrend)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to get trend query: %w", err)
	}
	if err := s.SelectContext(ctx, &res.DailyTrend, s.Adopt(fmt.Sprintf(trendQuery, where)), args...); err != nil {
		return Stats{}, fmt.Errorf("failed to get daily trend: %w", err)
	}
	return res, nil
}

func (s *Submissions) update(ctx context.Context, cmd engine.DBCmd, id string, val bool) error {
	query, err := submissionsQueries.Pick(s.Type(), cmd)
	if err != nil {
		return fmt.Errorf("failed to get update query: %w", err)
	}

	s.Lock()
	defer s.Unlock()
	res, err := s.ExecContext(ctx, s.Adopt(query), val, s.GID(), id)
	if err != nil {
		return fmt.Errorf("failed to update submission %s: %w", id, err)
	}
	return affected(res, id)
}

func (s *Submissions) filter(req ListRequest) (where string, args []any) {
	conds, args := []string{"gid = ?"}, []any{s.GID()}
	if req.Spam != nil {
		conds = append(conds, "spam = ?")
		args = append(args, *req.Spam)
	}
	if req.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, req.Type)
	}
	return strings.Join(conds, " AND "), args
}

// migrate adds columns missing in tables created by earlier versions
func (s *Submissions) migrate(ctx context.Context, tx *sqlx.Tx, _ string) error {
	if s.Type() != engine.Sqlite {
		return nil // postgres schema is created complete
	}
	var cols []string
	if err := tx.SelectContext(ctx, &cols, "SELECT name FROM pragma_table_info('submissions')"); err != nil {
		return fmt.Errorf("failed to get submissions columns: %w", err)
	}
	for _, c := range cols {
		if c == "email_sent" {
			return nil
		}
	}
	if _, err := tx.ExecContext(ctx, "ALTER TABLE submissions ADD COLUMN email_sent BOOLEAN NOT NULL DEFAULT 0"); err != nil {
		return fmt.Errorf("failed to add email_sent column: %w", err)
	}
	log.Printf("[INFO] submissions table migrated, email_sent column added")
	return nil
}

func (sub *Submission) decode() error {
	if sub.ContentJSON != "" {
		if err := json.Unmarshal([]byte(sub.ContentJSON), &sub.Content); err != nil {
			return fmt.Errorf("failed to unmarshal content of %s: %w", sub.ID, err)
		}
	}
	if sub.DetailsJSON != "" {
		if err := json.Unmarshal([]byte(sub.DetailsJSON), &sub.Details); err != nil {
			return fmt.Errorf("failed to unmarshal details of %s: %w", sub.ID, err)
		}
	}
	sub.CreatedAt = sub.CreatedAt.Local()
	return nil
}

func affected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
