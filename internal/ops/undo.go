package ops

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hpungsan/nesta/internal/db"
)

// UndoOutput contains the result of the Undo operation.
type UndoOutput struct {
	Removed       int    `json:"removed"`
	NothingToUndo bool   `json:"nothing_to_undo"`
	Message       string `json:"message"`
}

// Undo deletes every record of the last install and clears the record.
func Undo(ctx context.Context, env *Env) (*UndoOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	gen, err := LoadGeneration(env.DB)
	if err != nil {
		return nil, err
	}
	if gen.Empty() {
		return &UndoOutput{NothingToUndo: true, Message: formatUndoMessage(0, true)}, nil
	}

	removed, err := purgePages(env.DB, gen.PageIDs)
	if err != nil {
		return nil, err
	}
	if err := clearGeneration(env.DB); err != nil {
		return nil, err
	}

	env.logger().Info("install undone", "pack", gen.PackID, "removed", removed)
	return &UndoOutput{Removed: removed, Message: formatUndoMessage(removed, false)}, nil
}

// ResetOutput contains the result of the Reset operation.
type ResetOutput struct {
	Removed int    `json:"removed"`
	Message string `json:"message"`
}

// Reset removes the installed records, the install record and the stored
// branding. It succeeds when there is nothing to remove.
func Reset(ctx context.Context, env *Env) (*ResetOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	gen, err := LoadGeneration(env.DB)
	if err != nil {
		return nil, err
	}

	removed := 0
	if !gen.Empty() {
		if removed, err = purgePages(env.DB, gen.PageIDs); err != nil {
			return nil, err
		}
	}
	if err := clearGeneration(env.DB); err != nil {
		return nil, err
	}
	if err := db.DeleteOption(env.DB, BrandingOption); err != nil {
		return nil, err
	}

	env.logger().Info("site reset", "removed", removed)
	return &ResetOutput{Removed: removed, Message: formatUndoMessage(removed, gen.Empty())}, nil
}

// purgePages deletes the given records and returns how many existed. A front
// page among them falls back to the posts listing.
func purgePages(database *sql.DB, pageIDs map[string]int64) (int, error) {
	ids := make([]int64, 0, len(pageIDs))
	for _, id := range pageIDs {
		if id > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	removed := 0
	deleted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		ok, err := db.DeleteRecord(database, id)
		if err != nil {
			return removed, err
		}
		deleted[id] = true
		if ok {
			removed++
		}
	}

	var front json.Number
	found, err := db.GetOption(database, PageOnFrontOption, &front)
	if err != nil {
		return removed, err
	}
	if !found {
		return removed, nil
	}
	if frontID, err := front.Int64(); err == nil && deleted[frontID] {
		if err := db.DeleteOption(database, PageOnFrontOption); err != nil {
			return removed, err
		}
		if err := db.SetOption(database, ShowOnFrontOption, "posts"); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// formatUndoMessage creates a human-readable message for an undo or reset.
func formatUndoMessage(count int, nothing bool) string {
	if nothing {
		return "Nothing to undo"
	}
	if count == 0 {
		return "No installed records were left to remove"
	}
	word := "record"
	if count > 1 {
		word = "records"
	}
	return fmt.Sprintf("Permanently deleted %d %s", count, word)
}
