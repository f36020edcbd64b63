/*
Package manifest records the outcome of an extraction run in a SQLite
database: every bitmap written along with its checksum, and every room or
asset that failed to decode.
*/
package manifest

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Asset is a bitmap that was written.
type Asset struct {
	Name          string
	Level         string
	Room          sql.NullInt64
	Width, Height int
	SHA1          string
}

// Failure is a room or asset that could not be decoded.
type Failure struct {
	Level string
	Room  sql.NullInt64
	Error string
}

type Manifest struct {
	db *sql.DB
}

// Open opens or creates the manifest database in file.
func Open(file string) (*Manifest, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS asset (id INTEGER PRIMARY KEY NOT NULL, name TEXT NOT NULL UNIQUE, level TEXT NOT NULL, room INTEGER, width INTEGER NOT NULL, height INTEGER NOT NULL, sha1 TEXT NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS failure (id INTEGER PRIMARY KEY NOT NULL, level TEXT NOT NULL, room INTEGER, error TEXT NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Manifest{
		db: db,
	}, nil
}

func (m *Manifest) Close() error {
	return m.db.Close()
}

func room(r int) sql.NullInt64 {
	if r < 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(r), Valid: true}
}

// AddAsset records a written bitmap, replacing any earlier record of the same
// name. A negative room marks an asset that does not belong to a room.
func (m *Manifest) AddAsset(name, level string, r, width, height int, sha string) error {
	if _, err := m.db.Exec("INSERT OR REPLACE INTO asset (name, level, room, width, height, sha1) VALUES (?, ?, ?, ?, ?, ?)", name, level, room(r), width, height, sha); err != nil {
		return err
	}
	return nil
}

// AddFailure records a decoding failure. A negative room marks a failure
// that does not belong to a room.
func (m *Manifest) AddFailure(level string, r int, failure error) error {
	if _, err := m.db.Exec("INSERT INTO failure (level, room, error) VALUES (?, ?, ?)", level, room(r), failure.Error()); err != nil {
		return err
	}
	return nil
}

// Asset returns the record for name, or nil if there is none.
func (m *Manifest) Asset(name string) (*Asset, error) {
	a := Asset{Name: name}
	switch err := m.db.QueryRow("SELECT level, room, width, height, sha1 FROM asset WHERE name = ?", name).Scan(&a.Level, &a.Room, &a.Width, &a.Height, &a.SHA1); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return &a, nil
	default:
		return nil, err
	}
}

// Assets returns every asset in name order.
func (m *Manifest) Assets() ([]Asset, error) {
	rows, err := m.db.Query("SELECT name, level, room, width, height, sha1 FROM asset ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.Name, &a.Level, &a.Room, &a.Width, &a.Height, &a.SHA1); err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// Failures returns every failure in the order recorded.
func (m *Manifest) Failures() ([]Failure, error) {
	rows, err := m.db.Query("SELECT level, room, error FROM failure ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failures []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.Level, &f.Room, &f.Error); err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}
