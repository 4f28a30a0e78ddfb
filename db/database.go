package db

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/toriisent/yeezyplayer-store/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables if they
// don't exist. The catalog tables (releases, tracks, liked_songs) are
// managed by GORM migration; this covers the user and lyric tables the
// raw-SQL repositories own.
func InitDB() error {
	if err := createUsersTable(); err != nil {
		return err
	}
	if err := createLyricTables(); err != nil {
		return err
	}

	log.Println("Database initialization completed.")
	return nil
}

func createUsersTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(100) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		phone VARCHAR(20),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	log.Println("Users table initialized successfully (or already exists).")
	return nil
}

// createLyricTables creates the two lyric tables. Timing columns are
// DOUBLE seconds; line_order/word_order mirror array position because
// retrieval order is otherwise unspecified. Deleting a track's lines
// cascades to its words.
func createLyricTables() error {
	linesQuery := `
	CREATE TABLE IF NOT EXISTS lyric_lines (
		id VARCHAR(36) PRIMARY KEY,
		track_id VARCHAR(36) NOT NULL,
		line_time DOUBLE NOT NULL DEFAULT 0,
		line_order INT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_lyric_lines_track (track_id)
	);
	`
	if _, err := DB.Exec(linesQuery); err != nil {
		return fmt.Errorf("failed to create lyric_lines table: %w", err)
	}

	wordsQuery := `
	CREATE TABLE IF NOT EXISTS lyric_words (
		id VARCHAR(36) PRIMARY KEY,
		lyric_line_id VARCHAR(36) NOT NULL,
		word VARCHAR(255) NOT NULL,
		start_time DOUBLE NOT NULL DEFAULT 0,
		end_time DOUBLE NOT NULL DEFAULT 0,
		word_order INT NOT NULL,
		CONSTRAINT fk_lyric_words_line FOREIGN KEY (lyric_line_id) REFERENCES lyric_lines(id) ON DELETE CASCADE,
		INDEX idx_lyric_words_line (lyric_line_id)
	);
	`
	if _, err := DB.Exec(wordsQuery); err != nil {
		return fmt.Errorf("failed to create lyric_words table: %w", err)
	}

	log.Println("Lyric tables initialized successfully (or already exist).")
	return nil
}
