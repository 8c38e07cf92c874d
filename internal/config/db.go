package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DBConfig holds database connection parameters
type DBConfig struct {
	DSN           string
	MaxRetries    int
	RetryInterval time.Duration
}

// LoadDBConfig loads database configuration from environment variables.
// DATABASE_URL wins over the individual DB_* variables.
func LoadDBConfig() (*DBConfig, error) {
	cfg := &DBConfig{
		MaxRetries:    getenvInt("DB_CONNECT_RETRIES", 5),
		RetryInterval: getenvDuration("DB_RETRY_INTERVAL", 5*time.Second),
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.DSN = url
		return cfg, nil
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")

	if dbHost == "" || dbPort == "" || dbUser == "" || dbName == "" {
		return nil, fmt.Errorf("database environment variables not set (DATABASE_URL or DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
	}

	cfg.DSN = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPassword, dbName)
	return cfg, nil
}

// ConnectDB establishes a connection to the PostgreSQL database
func ConnectDB(ctx context.Context, cfg *DBConfig) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	for i := 0; i < maxRetries; i++ {
		pool, err = pgxpool.New(ctx, cfg.DSN)
		if err == nil {
			err = pool.Ping(ctx)
			if err == nil {
				slog.Info("connected to PostgreSQL")
				return pool, nil
			}
			pool.Close()
		}
		slog.Warn("database connection failed, retrying",
			"attempt", i+1, "max_attempts", maxRetries, "retry_in", cfg.RetryInterval, "err", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.RetryInterval):
		}
	}
	return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", maxRetries, err)
}

// AutoMigrate creates tables if they don't exist
func AutoMigrate(ctx context.Context, db *pgxpool.Pool) error {
	sql := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('user', 'admin', 'super-admin')) DEFAULT 'user',
		student_id TEXT UNIQUE,
		phone TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS books (
		id INTEGER PRIMARY KEY, -- catalog number assigned by the librarian
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		subject TEXT NOT NULL,
		semester INTEGER NOT NULL,
		publication_year INTEGER NOT NULL,
		image_url TEXT,
		available BOOLEAN NOT NULL DEFAULT TRUE,
		added_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS issues (
		id BIGSERIAL PRIMARY KEY,
		book_id INTEGER NOT NULL REFERENCES books(id) ON DELETE RESTRICT,
		student_id BIGINT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
		issue_date TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
		due_date TIMESTAMP WITH TIME ZONE NOT NULL,
		return_date TIMESTAMP WITH TIME ZONE,
		status TEXT NOT NULL CHECK (status IN ('issued', 'returned')) DEFAULT 'issued',
		fine BIGINT NOT NULL DEFAULT 0, -- in whole currency units
		issued_by BIGINT REFERENCES users(id) ON DELETE SET NULL
	);

	-- At most one open loan per book
	CREATE UNIQUE INDEX IF NOT EXISTS idx_issues_open_book ON issues(book_id) WHERE status = 'issued';
	CREATE INDEX IF NOT EXISTS idx_issues_status_due_date ON issues(status, due_date);
	CREATE INDEX IF NOT EXISTS idx_issues_student_id ON issues(student_id);
	CREATE INDEX IF NOT EXISTS idx_books_semester ON books(semester);

    -- Function to update updated_at column
    CREATE OR REPLACE FUNCTION update_updated_at_column()
    RETURNS TRIGGER AS $$
    BEGIN
       NEW.updated_at = NOW();
       RETURN NEW;
    END;
    $$ language 'plpgsql';

    DO $$
    BEGIN
        IF NOT EXISTS (
            SELECT 1 FROM pg_trigger
            WHERE tgname = 'set_books_updated_at' AND tgrelid = 'books'::regclass
        ) THEN
            CREATE TRIGGER set_books_updated_at
            BEFORE UPDATE ON books
            FOR EACH ROW
            EXECUTE FUNCTION update_updated_at_column();
        END IF;
        IF NOT EXISTS (
            SELECT 1 FROM pg_trigger
            WHERE tgname = 'set_users_updated_at' AND tgrelid = 'users'::regclass
        ) THEN
            CREATE TRIGGER set_users_updated_at
            BEFORE UPDATE ON users
            FOR EACH ROW
            EXECUTE FUNCTION update_updated_at_column();
        END IF;
    END
    $$;
	`
	_, err := db.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}

	slog.Info("AutoMigrate applied successfully")
	return nil
}
