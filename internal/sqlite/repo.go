package sqlite

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/ArturAbdullinITIS/newsd/internal/newsd"
)

// Ensure Repo implements the cache store contract.
var _ newsd.Repository = (*Repo)(nil)

type Repo struct {
	db *sqlx.DB

	subChanges     *hub
	articleChanges *hub
	settingChanges *hub
}

func New(db *sqlx.DB) Repo {
	return Repo{
		db:             db,
		subChanges:     newHub(),
		articleChanges: newHub(),
		settingChanges: newHub(),
	}
}

// Open opens the sqlite database at path.
//
// Foreign keys are off by default in sqlite; the cascade from subscriptions
// to articles depends on them, so the pragma is part of the DSN here rather
// than left to callers.
func Open(path string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %s", err)
	}

	return db, nil
}
