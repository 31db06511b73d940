package db

import (
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/nesta/internal/content"
	"github.com/hpungsan/nesta/internal/errors"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.NestaError{
	Code:    errors.ErrConflict,
	Status:  409,
	Message: "unique constraint violation",
}

const recordColumns = `id, kind, status, slug, title, content, excerpt, menu_order,
	post_date, parent_id, mime_type, guid, file_path, created_at, updated_at`

// InsertRecord stores a new record and sets r.ID, r.CreatedAt, r.UpdatedAt.
func InsertRecord(db *sql.DB, r *content.Record) error {
	now := time.Now().Unix()

	query := `
		INSERT INTO records (
			kind, status, slug, title, content, excerpt, menu_order,
			post_date, parent_id, mime_type, guid, file_path, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := db.Exec(query,
		string(r.Kind), r.Status, r.Slug, r.Title, r.Content, r.Excerpt, r.MenuOrder,
		toNullString(r.PostDate), toNullInt(r.ParentID), toNullString(r.MimeType),
		toNullString(r.GUID), toNullString(r.FilePath), now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return errors.NewInternal(err)
	}
	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// UpdateRecord overwrites the mutable fields of an existing record.
// Does NOT change: id, kind, created_at
func UpdateRecord(db *sql.DB, r *content.Record) error {
	now := time.Now().Unix()

	query := `
		UPDATE records
		SET status = ?, slug = ?, title = ?, content = ?, excerpt = ?, menu_order = ?,
			post_date = ?, parent_id = ?, mime_type = ?, guid = ?, file_path = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := db.Exec(query,
		r.Status, r.Slug, r.Title, r.Content, r.Excerpt, r.MenuOrder,
		toNullString(r.PostDate), toNullInt(r.ParentID), toNullString(r.MimeType),
		toNullString(r.GUID), toNullString(r.FilePath), now, r.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound("record", formatID(r.ID))
	}

	r.UpdatedAt = now
	return nil
}

// UpdateContent replaces only the content body of a record.
func UpdateContent(db *sql.DB, id int64, body string) error {
	result, err := db.Exec(`UPDATE records SET content = ?, updated_at = ? WHERE id = ?`,
		body, time.Now().Unix(), id)
	if err != nil {
		return errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if n == 0 {
		return errors.NewNotFound("record", formatID(id))
	}
	return nil
}

// GetRecord retrieves a record by local id.
func GetRecord(db *sql.DB, id int64) (*content.Record, error) {
	row := db.QueryRow(`SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("record", formatID(id))
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// GetBySlug retrieves a record by kind and slug.
func GetBySlug(db *sql.DB, kind content.Kind, slug string) (*content.Record, error) {
	row := db.QueryRow(`SELECT `+recordColumns+` FROM records WHERE kind = ? AND slug = ?`, string(kind), slug)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(string(kind), slug)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// GetByTitle retrieves the oldest record of kind with an exact title.
func GetByTitle(db *sql.DB, kind content.Kind, title string) (*content.Record, error) {
	row := db.QueryRow(`SELECT `+recordColumns+` FROM records WHERE kind = ? AND title = ? ORDER BY id LIMIT 1`,
		string(kind), title)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(string(kind), title)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// ListRecords returns records of the given kinds ordered by menu_order then id.
// No kinds means all kinds.
func ListRecords(db *sql.DB, kinds ...content.Kind) ([]*content.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records`
	args := make([]any, 0, len(kinds))
	if len(kinds) > 0 {
		placeholders := make([]string, len(kinds))
		for i, k := range kinds {
			placeholders[i] = "?"
			args = append(args, string(k))
		}
		query += ` WHERE kind IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY menu_order, id`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []*content.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// DeleteRecord permanently removes a record and its metadata.
// Returns false when the record did not exist.
func DeleteRecord(db *sql.DB, id int64) (bool, error) {
	if _, err := db.Exec(`DELETE FROM record_meta WHERE record_id = ?`, id); err != nil {
		return false, errors.NewInternal(err)
	}
	result, err := db.Exec(`DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return n > 0, nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord scans a single row into a Record.
func scanRecord(row rowScanner) (*content.Record, error) {
	var (
		r        content.Record
		kind     string
		postDate sql.NullString
		parentID sql.NullInt64
		mimeType sql.NullString
		guid     sql.NullString
		filePath sql.NullString
	)

	err := row.Scan(
		&r.ID, &kind, &r.Status, &r.Slug, &r.Title, &r.Content, &r.Excerpt, &r.MenuOrder,
		&postDate, &parentID, &mimeType, &guid, &filePath, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Kind = content.Kind(kind)
	r.PostDate = postDate.String
	r.ParentID = parentID.Int64
	r.MimeType = mimeType.String
	r.GUID = guid.String
	r.FilePath = filePath.String

	return &r, nil
}

// toNullString maps "" to NULL.
func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// toNullInt maps 0 to NULL.
func toNullInt(n int64) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n, Valid: true}
}
