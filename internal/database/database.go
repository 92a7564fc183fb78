package database

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

func Connect() (*sql.DB, error) {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "pragati_user")
	password := getEnv("DB_PASSWORD", "pragati_password")
	dbname := getEnv("DB_NAME", "pragatipath")
	sslmode := getEnv("DB_SSLMODE", "disable")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func Migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		password VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

	CREATE TABLE IF NOT EXISTS subjects (
		id         BIGSERIAL PRIMARY KEY,
		code       VARCHAR(50) UNIQUE NOT NULL,
		name       VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS chapters (
		id         BIGSERIAL PRIMARY KEY,
		subject_id BIGINT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
		name       VARCHAR(255) NOT NULL,
		skill_key  VARCHAR(100) UNIQUE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_chapters_subject ON chapters(subject_id);

	CREATE TABLE IF NOT EXISTS items (
		id                 BIGSERIAL PRIMARY KEY,
		subject            VARCHAR(50) NOT NULL,
		chapter_id         BIGINT REFERENCES chapters(id),
		skill_id           VARCHAR(100) NOT NULL,
		question_text      TEXT NOT NULL,
		correct_option_id  VARCHAR(5) NOT NULL,
		explanation        TEXT NOT NULL DEFAULT '',
		irt_difficulty     DOUBLE PRECISION NOT NULL DEFAULT 0,
		irt_discrimination DOUBLE PRECISION NOT NULL DEFAULT 1,
		irt_guessing       DOUBLE PRECISION NOT NULL DEFAULT 0.25,
		difficulty_level   VARCHAR(20) NOT NULL DEFAULT 'moderate',
		is_active          BOOLEAN NOT NULL DEFAULT TRUE,
		times_attempted    INT NOT NULL DEFAULT 0,
		times_correct      INT NOT NULL DEFAULT 0,
		created_at         TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_items_serving ON items(subject, difficulty_level, is_active);
	CREATE INDEX IF NOT EXISTS idx_items_chapter ON items(chapter_id) WHERE chapter_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS item_options (
		id          BIGSERIAL PRIMARY KEY,
		item_id     BIGINT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		option_id   VARCHAR(5) NOT NULL,
		option_text TEXT NOT NULL,
		is_correct  BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE(item_id, option_id)
	);

	CREATE INDEX IF NOT EXISTS idx_options_item ON item_options(item_id);

	CREATE TABLE IF NOT EXISTS item_exposures (
		id         BIGSERIAL PRIMARY KEY,
		student_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		item_id    BIGINT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		served_at  TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		UNIQUE(student_id, item_id)
	);

	CREATE INDEX IF NOT EXISTS idx_exposures_student ON item_exposures(student_id, served_at);

	CREATE TABLE IF NOT EXISTS skill_states (
		id         BIGSERIAL PRIMARY KEY,
		student_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		skill_id   VARCHAR(100) NOT NULL,
		p_learn    DOUBLE PRECISION NOT NULL DEFAULT 0.1,
		p_transit  DOUBLE PRECISION NOT NULL DEFAULT 0.1,
		p_slip     DOUBLE PRECISION NOT NULL DEFAULT 0.2,
		p_guess    DOUBLE PRECISION NOT NULL DEFAULT 0.2,
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		UNIQUE(student_id, skill_id)
	);

	CREATE TABLE IF NOT EXISTS trend_states (
		student_id  BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		predictions JSONB NOT NULL DEFAULT '{}',
		history     JSONB NOT NULL DEFAULT '{}',
		updated_at  TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS skill_mastery (
		id         BIGSERIAL PRIMARY KEY,
		student_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		skill_id   VARCHAR(100) NOT NULL,
		mastery    DOUBLE PRECISION NOT NULL,
		level      VARCHAR(20) NOT NULL,
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		UNIQUE(student_id, skill_id)
	);

	CREATE INDEX IF NOT EXISTS idx_mastery_student ON skill_mastery(student_id);

	CREATE TABLE IF NOT EXISTS learning_sessions (
		id                    UUID PRIMARY KEY,
		student_id            BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		subject               VARCHAR(50) NOT NULL,
		chapter_id            BIGINT REFERENCES chapters(id),
		skill_id              VARCHAR(100) NOT NULL,
		status                VARCHAR(20) NOT NULL DEFAULT 'active',
		end_reason            VARCHAR(50),
		current_difficulty    VARCHAR(20) NOT NULL,
		current_item_id       BIGINT REFERENCES items(id),
		max_questions         INT NOT NULL,
		questions_attempted   INT NOT NULL DEFAULT 0,
		correct_count         INT NOT NULL DEFAULT 0,
		consecutive_correct   INT NOT NULL DEFAULT 0,
		consecutive_incorrect INT NOT NULL DEFAULT 0,
		initial_mastery       DOUBLE PRECISION NOT NULL,
		mastery_progression   DOUBLE PRECISION[] NOT NULL DEFAULT '{}',
		difficulty_history    TEXT[] NOT NULL DEFAULT '{}',
		started_at            TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		expires_at            TIMESTAMP WITH TIME ZONE,
		completed_at          TIMESTAMP WITH TIME ZONE
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_student ON learning_sessions(student_id, started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_sessions_expiry ON learning_sessions(status, expires_at) WHERE expires_at IS NOT NULL;

	CREATE TABLE IF NOT EXISTS review_cards (
		id             BIGSERIAL PRIMARY KEY,
		student_id     BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		item_id        BIGINT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		ease_factor    DOUBLE PRECISION NOT NULL DEFAULT 2.5,
		interval_days  INT NOT NULL DEFAULT 1,
		repetition     INT NOT NULL DEFAULT 0,
		stage          VARCHAR(20) NOT NULL DEFAULT 'apprentice_1',
		correct_streak INT NOT NULL DEFAULT 0,
		total_reviews  INT NOT NULL DEFAULT 0,
		last_quality   INT NOT NULL DEFAULT 0,
		due_date       TIMESTAMP WITH TIME ZONE NOT NULL,
		suspended      BOOLEAN NOT NULL DEFAULT FALSE,
		created_at     TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at     TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(student_id, item_id)
	);

	CREATE INDEX IF NOT EXISTS idx_cards_due ON review_cards(student_id, due_date) WHERE suspended = FALSE;
	`

	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return Seed(db)
}

// Seed inserts the baseline subject and chapter catalog. Re-running is a
// no-op; adding new subjects here picks them up on the next deploy.
func Seed(db *sql.DB) error {
	subjects := []struct {
		code string
		name string
	}{
		{"quantitative_aptitude", "Quantitative Aptitude"},
		{"logical_reasoning", "Logical Reasoning"},
		{"data_interpretation", "Data Interpretation"},
		{"verbal_ability", "Verbal Ability"},
	}

	for _, s := range subjects {
		if _, err := db.Exec(
			`INSERT INTO subjects (code, name) VALUES ($1, $2) ON CONFLICT (code) DO NOTHING`,
			s.code, s.name,
		); err != nil {
			return fmt.Errorf("seed subject %s: %w", s.code, err)
		}
	}

	chapters := []struct {
		subjectCode string
		name        string
		skillKey    string
	}{
		{"quantitative_aptitude", "Percentages", "quantitative_aptitude.percentages"},
		{"quantitative_aptitude", "Ratio and Proportion", "quantitative_aptitude.ratio_proportion"},
		{"quantitative_aptitude", "Time and Work", "quantitative_aptitude.time_work"},
		{"logical_reasoning", "Syllogisms", "logical_reasoning.syllogisms"},
		{"logical_reasoning", "Blood Relations", "logical_reasoning.blood_relations"},
		{"data_interpretation", "Tables and Charts", "data_interpretation.tables_charts"},
		{"verbal_ability", "Reading Comprehension", "verbal_ability.reading_comprehension"},
		{"verbal_ability", "Sentence Correction", "verbal_ability.sentence_correction"},
	}

	for _, c := range chapters {
		if _, err := db.Exec(
			`INSERT INTO chapters (subject_id, name, skill_key)
			 SELECT id, $2, $3 FROM subjects WHERE code = $1
			 ON CONFLICT (skill_key) DO NOTHING`,
			c.subjectCode, c.name, c.skillKey,
		); err != nil {
			return fmt.Errorf("seed chapter %s: %w", c.skillKey, err)
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
