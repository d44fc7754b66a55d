package credentials

import (
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	sessionRecordKey = "user"
	localeRecordKey  = "user-locale"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore keeps the session and locale records in a SQLite file so they
// survive process restarts, the way browser storage survives reloads.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the store at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "[NewSQLiteStore] sql.Open")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "[NewSQLiteStore] create schema")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(session Session) error {
	data, err := encodeSession(session)
	if err != nil {
		return errors.Wrap(err, "[SQLiteStore.Save] encode session")
	}
	return s.put(sessionRecordKey, string(data))
}

func (s *SQLiteStore) Load() (*Session, error) {
	value, ok, err := s.get(sessionRecordKey)
	if err != nil {
		return nil, errors.Wrap(err, "[SQLiteStore.Load] read record")
	}
	if !ok {
		return nil, nil
	}
	session, err := decodeSession([]byte(value))
	if err != nil {
		return nil, errors.Wrap(err, "[SQLiteStore.Load] decode session")
	}
	return session, nil
}

func (s *SQLiteStore) Clear() error {
	_, err := s.db.Exec(`DELETE FROM records WHERE key = ?`, sessionRecordKey)
	if err != nil {
		return errors.Wrap(err, "[SQLiteStore.Clear] delete record")
	}
	return nil
}

func (s *SQLiteStore) UpdateAccessToken(token string) error {
	session, err := s.Load()
	if err != nil {
		return errors.Wrap(err, "[SQLiteStore.UpdateAccessToken] load")
	}
	if session == nil {
		return nil // no session, nothing to update
	}
	session.Access = token
	return s.Save(*session)
}

func (s *SQLiteStore) SaveLocale(code string) error {
	return s.put(localeRecordKey, code)
}

func (s *SQLiteStore) Locale() (string, error) {
	value, ok, err := s.get(localeRecordKey)
	if err != nil || !ok {
		return "", err
	}
	return value, nil
}

func (s *SQLiteStore) put(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO records (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return errors.Wrap(err, "[SQLiteStore.put] upsert record")
	}
	return nil
}

func (s *SQLiteStore) get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM records WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}
