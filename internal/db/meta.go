package db

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/hpungsan/nesta/internal/errors"
)

// SetMeta stores a JSON-encoded metadata value, replacing any previous value for key.
func SetMeta(db *sql.DB, recordID int64, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		INSERT INTO record_meta (record_id, meta_key, meta_value) VALUES (?, ?, ?)
		ON CONFLICT(record_id, meta_key) DO UPDATE SET meta_value = excluded.meta_value
	`
	if _, err := db.Exec(query, recordID, key, string(data)); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetMeta returns every metadata value of a record.
// Numbers decode as json.Number so integer ids round-trip unchanged.
func GetMeta(db *sql.DB, recordID int64) (map[string]any, error) {
	rows, err := db.Query(`SELECT meta_key, meta_value FROM record_meta WHERE record_id = ? ORDER BY meta_key`, recordID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	meta := make(map[string]any)
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, errors.NewInternal(err)
		}
		v, err := decodeJSON(raw)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		meta[key] = v
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return meta, nil
}

// GetOption decodes the named option into dst.
// Returns false when the option is not set.
func GetOption(db *sql.DB, name string, dst any) (bool, error) {
	var raw string
	err := db.QueryRow(`SELECT value FROM options WHERE name = ?`, name).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// SetOption stores value as JSON under name.
func SetOption(db *sql.DB, name string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		INSERT INTO options (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := db.Exec(query, name, string(data), time.Now().Unix()); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// DeleteOption removes an option. Missing options are not an error.
func DeleteOption(db *sql.DB, name string) error {
	if _, err := db.Exec(`DELETE FROM options WHERE name = ?`, name); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

func decodeJSON(raw string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
