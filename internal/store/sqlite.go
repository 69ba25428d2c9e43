package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/sitebot/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id           TEXT PRIMARY KEY,
	company_name TEXT NOT NULL,
	website_url  TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (company_name, website_url)
);

CREATE TABLE IF NOT EXISTS scraped_data (
	id           TEXT PRIMARY KEY,
	company_id   TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	content_type TEXT NOT NULL,
	content_text TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS chat_history (
	id               TEXT PRIMARY KEY,
	company_id       TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	user_question    TEXT NOT NULL,
	bot_response     TEXT NOT NULL,
	response_time_ms INTEGER NOT NULL DEFAULT 0,
	source           TEXT NOT NULL DEFAULT '',
	created_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_companies_updated_at ON companies(updated_at);
CREATE INDEX IF NOT EXISTS idx_scraped_data_company ON scraped_data(company_id, content_type);
CREATE INDEX IF NOT EXISTS idx_chat_history_company_created ON chat_history(company_id, created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveCompany(ctx context.Context, name, websiteURL string) (*model.Company, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (id, company_name, website_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (company_name, website_url) DO UPDATE SET updated_at = excluded.updated_at`,
		uuid.New().String(), name, websiteURL, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: upsert company")
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, company_name, website_url, created_at, updated_at
		 FROM companies WHERE company_name = ? AND website_url = ?`,
		name, websiteURL,
	)
	return scanCompany(row)
}

func (s *SQLiteStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, company_name, website_url, created_at, updated_at FROM companies WHERE id = ?`, id)
	c, err := scanCompany(row)
	return c, eris.Wrapf(err, "sqlite: get company %s", id)
}

func (s *SQLiteStore) LatestCompany(ctx context.Context) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, company_name, website_url, created_at, updated_at
		 FROM companies ORDER BY updated_at DESC LIMIT 1`)
	c, err := scanCompany(row)
	return c, eris.Wrap(err, "sqlite: latest company")
}

func (s *SQLiteStore) ClearCompanyData(ctx context.Context, companyID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM scraped_data WHERE company_id = ?`, companyID)
	return eris.Wrapf(err, "sqlite: clear company data %s", companyID)
}

func (s *SQLiteStore) SaveScrapedData(ctx context.Context, companyID string, contentType model.ContentType, text string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scraped_data (id, company_id, content_type, content_text, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), companyID, string(contentType), text, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert scraped data %s", contentType)
}

func (s *SQLiteStore) GetScrapedData(ctx context.Context, companyID string, contentType model.ContentType) (*model.ScrapedData, error) {
	var d model.ScrapedData
	err := s.db.QueryRowContext(ctx,
		`SELECT id, company_id, content_type, content_text, created_at
		 FROM scraped_data WHERE company_id = ? AND content_type = ?
		 ORDER BY created_at DESC LIMIT 1`,
		companyID, string(contentType),
	).Scan(&d.ID, &d.CompanyID, &d.ContentType, &d.ContentText, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get scraped data")
	}
	return &d, nil
}

func (s *SQLiteStore) SaveChatMessage(ctx context.Context, msg *model.ChatMessage) error {
	prepareMessage(msg)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_history (id, company_id, user_question, bot_response, response_time_ms, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.CompanyID, msg.Question, msg.Response, msg.ResponseTimeMS, string(msg.Source), msg.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert chat message")
}

func (s *SQLiteStore) ListChatHistory(ctx context.Context, companyID string, limit int) ([]model.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, user_question, bot_response, response_time_ms, source, created_at
		 FROM chat_history WHERE company_id = ? ORDER BY created_at DESC LIMIT ?`,
		companyID, historyLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list chat history")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.CompanyID, &m.Question, &m.Response, &m.ResponseTimeMS, &m.Source, &m.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan chat message")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate chat history")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanCompany(row scannable) (*model.Company, error) {
	var c model.Company
	err := row.Scan(&c.ID, &c.Name, &c.WebsiteURL, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "scan company")
	}
	return &c, nil
}

func prepareMessage(msg *model.ChatMessage) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
}
