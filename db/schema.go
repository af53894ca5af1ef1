package db

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notes (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		tags TEXT NOT NULL,
		owner TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		shared_id TEXT UNIQUE,
		shared_password_hash TEXT,
		shared_at TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_owner ON notes(owner)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		username VARCHAR(255) PRIMARY KEY,
		password_hash VARCHAR(255) NOT NULL,
		created_at VARCHAR(64) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notes (
		id INT PRIMARY KEY,
		title TEXT NOT NULL,
		body MEDIUMTEXT NOT NULL,
		tags TEXT NOT NULL,
		owner VARCHAR(255) NOT NULL,
		created_at VARCHAR(64) NOT NULL,
		updated_at VARCHAR(64) NOT NULL,
		shared_id VARCHAR(64) NULL UNIQUE,
		shared_password_hash VARCHAR(255) NULL,
		shared_at VARCHAR(64) NULL,
		INDEX idx_notes_owner (owner)
	)`,
}
