package database

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

var db *sql.DB

func InitDatabase(path string) error {
	var err error
	db, err = sql.Open("sqlite3", path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Fail to open database")
		return err
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		log.Error().Err(err).Str("path", path).Msg("Fail to reach database")
		return err
	}
	return createTables()
}

func DB() *sql.DB {
	return db
}

func Close() error {
	if db == nil {
		return nil
	}
	return db.Close()
}

func createTables() error {
	// 创建fetch_log表
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS fetch_log (
		id INTEGER PRIMARY KEY,
		session_id TEXT NOT NULL,
		generation INTEGER NOT NULL,
		status_code INTEGER NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		committed INTEGER NOT NULL DEFAULT 0,
		error TEXT DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0,
		cat_ids TEXT DEFAULT '[]',
		created_at INTEGER NOT NULL
	);`)
	if err != nil {
		log.Error().Err(err).Msg("Fail to create fetch_log table")
		return err
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_fetch_log_created_at ON fetch_log(created_at)`)
	if err != nil {
		log.Error().Err(err).Msg("Fail to create fetch_log index")
		return err
	}
	return nil
}
