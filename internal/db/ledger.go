package db

import "database/sql"

// LedgerOption is the option holding the pack id → last applied checksum map.
const LedgerOption = "template_remote_checksums"

// LedgerStore keeps the sync checksum ledger in the options table.
type LedgerStore struct {
	DB *sql.DB
}

// LoadLedger returns the stored ledger, empty when none was saved.
func (s LedgerStore) LoadLedger() (map[string]string, error) {
	ledger := map[string]string{}
	if _, err := GetOption(s.DB, LedgerOption, &ledger); err != nil {
		return nil, err
	}
	return ledger, nil
}

// SaveLedger replaces the stored ledger.
func (s LedgerStore) SaveLedger(ledger map[string]string) error {
	if ledger == nil {
		ledger = map[string]string{}
	}
	return SetOption(s.DB, LedgerOption, ledger)
}
