package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/sitebot/internal/db"
	"github.com/sells-group/sitebot/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres connects to Postgres and returns a store over the pool.
func NewPostgres(ctx context.Context, connString string, poolCfg db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	company_name TEXT NOT NULL,
	website_url  TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (company_name, website_url)
);

CREATE TABLE IF NOT EXISTS scraped_data (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	company_id   TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	content_type TEXT NOT NULL,
	content_text TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS chat_history (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	company_id       TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	user_question    TEXT NOT NULL,
	bot_response     TEXT NOT NULL,
	response_time_ms BIGINT NOT NULL DEFAULT 0,
	source           TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_companies_updated_at ON companies(updated_at);
CREATE INDEX IF NOT EXISTS idx_scraped_data_company ON scraped_data(company_id, content_type);
CREATE INDEX IF NOT EXISTS idx_chat_history_company_created ON chat_history(company_id, created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveCompany(ctx context.Context, name, websiteURL string) (*model.Company, error) {
	now := time.Now().UTC()
	row := s.pool.QueryRow(ctx,
		`INSERT INTO companies (id, company_name, website_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4)
		 ON CONFLICT (company_name, website_url) DO UPDATE SET updated_at = EXCLUDED.updated_at
		 RETURNING id, company_name, website_url, created_at, updated_at`,
		uuid.New().String(), name, websiteURL, now,
	)
	c, err := scanPgCompany(row)
	return c, eris.Wrap(err, "postgres: upsert company")
}

func (s *PostgresStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, company_name, website_url, created_at, updated_at FROM companies WHERE id = $1`, id)
	c, err := scanPgCompany(row)
	return c, eris.Wrapf(err, "postgres: get company %s", id)
}

func (s *PostgresStore) LatestCompany(ctx context.Context) (*model.Company, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, company_name, website_url, created_at, updated_at
		 FROM companies ORDER BY updated_at DESC LIMIT 1`)
	c, err := scanPgCompany(row)
	return c, eris.Wrap(err, "postgres: latest company")
}

func (s *PostgresStore) ClearCompanyData(ctx context.Context, companyID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM scraped_data WHERE company_id = $1`, companyID)
	return eris.Wrapf(err, "postgres: clear company data %s", companyID)
}

func (s *PostgresStore) SaveScrapedData(ctx context.Context, companyID string, contentType model.ContentType, text string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scraped_data (id, company_id, content_type, content_text, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), companyID, string(contentType), text, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: insert scraped data %s", contentType)
}

func (s *PostgresStore) GetScrapedData(ctx context.Context, companyID string, contentType model.ContentType) (*model.ScrapedData, error) {
	var d model.ScrapedData
	var ct string
	err := s.pool.QueryRow(ctx,
		`SELECT id, company_id, content_type, content_text, created_at
		 FROM scraped_data WHERE company_id = $1 AND content_type = $2
		 ORDER BY created_at DESC LIMIT 1`,
		companyID, string(contentType),
	).Scan(&d.ID, &d.CompanyID, &ct, &d.ContentText, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get scraped data")
	}
	d.ContentType = model.ContentType(ct)
	return &d, nil
}

func (s *PostgresStore) SaveChatMessage(ctx context.Context, msg *model.ChatMessage) error {
	prepareMessage(msg)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_history (id, company_id, user_question, bot_response, response_time_ms, source, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		msg.ID, msg.CompanyID, msg.Question, msg.Response, msg.ResponseTimeMS, string(msg.Source), msg.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert chat message")
}

func (s *PostgresStore) ListChatHistory(ctx context.Context, companyID string, limit int) ([]model.ChatMessage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, company_id, user_question, bot_response, response_time_ms, source, created_at
		 FROM chat_history WHERE company_id = $1 ORDER BY created_at DESC LIMIT $2`,
		companyID, historyLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list chat history")
	}
	defer rows.Close()

	var out []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		var source string
		if err := rows.Scan(&m.ID, &m.CompanyID, &m.Question, &m.Response, &m.ResponseTimeMS, &source, &m.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan chat message")
		}
		m.Source = model.AnswerSource(source)
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate chat history")
}

func scanPgCompany(row pgx.Row) (*model.Company, error) {
	var c model.Company
	err := row.Scan(&c.ID, &c.Name, &c.WebsiteURL, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "scan company")
	}
	return &c, nil
}
