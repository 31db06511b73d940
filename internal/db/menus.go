package db

import (
	"database/sql"

	"github.com/hpungsan/nesta/internal/errors"
)

// Menu is a navigation menu assigned to an optional theme location.
type Menu struct {
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	Slug     string     `json:"slug"`
	Location string     `json:"location,omitempty"`
	Items    []MenuItem `json:"items"`
}

// MenuItem points at a local record, or at a URL when RecordID is 0.
type MenuItem struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	RecordID int64  `json:"record_id,omitempty"`
	URL      string `json:"url,omitempty"`
	Position int    `json:"position"`
}

// ReplaceMenu finds a menu by name (or slug), creates it when missing, and
// replaces all of its items in one transaction. Returns the menu id.
func ReplaceMenu(db *sql.DB, name, slug, location string, items []MenuItem) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	defer tx.Rollback()

	var menuID int64
	err = tx.QueryRow(`SELECT id FROM menus WHERE name = ? OR slug = ? ORDER BY (name = ?) DESC LIMIT 1`,
		name, slug, name).Scan(&menuID)
	switch {
	case err == sql.ErrNoRows:
		res, err := tx.Exec(`INSERT INTO menus (name, slug, location) VALUES (?, ?, ?)`,
			name, slug, toNullString(location))
		if err != nil {
			return 0, errors.NewInternal(err)
		}
		if menuID, err = res.LastInsertId(); err != nil {
			return 0, errors.NewInternal(err)
		}
	case err != nil:
		return 0, errors.NewInternal(err)
	default:
		if _, err := tx.Exec(`UPDATE menus SET location = ? WHERE id = ?`, toNullString(location), menuID); err != nil {
			return 0, errors.NewInternal(err)
		}
	}

	// A location holds at most one menu
	if location != "" {
		if _, err := tx.Exec(`UPDATE menus SET location = NULL WHERE location = ? AND id != ?`, location, menuID); err != nil {
			return 0, errors.NewInternal(err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM menu_items WHERE menu_id = ?`, menuID); err != nil {
		return 0, errors.NewInternal(err)
	}
	for i, item := range items {
		pos := item.Position
		if pos == 0 {
			pos = i + 1
		}
		if _, err := tx.Exec(`INSERT INTO menu_items (menu_id, title, record_id, url, position) VALUES (?, ?, ?, ?, ?)`,
			menuID, item.Title, toNullInt(item.RecordID), toNullString(item.URL), pos); err != nil {
			return 0, errors.NewInternal(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewInternal(err)
	}
	return menuID, nil
}

// GetMenuByLocation returns the menu assigned to location with its items in order.
func GetMenuByLocation(db *sql.DB, location string) (*Menu, error) {
	var (
		m   Menu
		loc sql.NullString
	)
	err := db.QueryRow(`SELECT id, name, slug, location FROM menus WHERE location = ? ORDER BY id DESC LIMIT 1`, location).
		Scan(&m.ID, &m.Name, &m.Slug, &loc)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("menu", location)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	m.Location = loc.String

	rows, err := db.Query(`SELECT id, title, record_id, url, position FROM menu_items WHERE menu_id = ? ORDER BY position, id`, m.ID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item     MenuItem
			recordID sql.NullInt64
			url      sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.Title, &recordID, &url, &item.Position); err != nil {
			return nil, errors.NewInternal(err)
		}
		item.RecordID = recordID.Int64
		item.URL = url.String
		m.Items = append(m.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return &m, nil
}
