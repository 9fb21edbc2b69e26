package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrations embed.FS

type SQLiteDB struct {
	db *sql.DB
}

func InitSQLite(path string) (*SQLiteDB, error) {
	dbpath := filepath.Join(path, "wallet.sqlite.db")
	db, err := sql.Open("sqlite3", dbpath)
	if err != nil {
		return nil, err
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, fmt.Sprintf("sqlite3://%s", dbpath))
	if err != nil {
		return nil, err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &SQLiteDB{db: db}, nil
}

func (sqlite *SQLiteDB) Get(key string) ([]byte, error) {
	var value []byte
	row := sqlite.db.QueryRow("SELECT v FROM wallet_kv WHERE k = ?", key)
	err := row.Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, nil
}

func (sqlite *SQLiteDB) Set(key string, value []byte) error {
	_, err := sqlite.db.Exec(`
	INSERT INTO wallet_kv (k, v) VALUES (?, ?)
	ON CONFLICT(k) DO UPDATE SET v = excluded.v
	`, key, value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (sqlite *SQLiteDB) Close() error {
	return sqlite.db.Close()
}
