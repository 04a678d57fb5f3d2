package export

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// keyColumns get an index when a table has them.
var keyColumns = []string{"CID_SIERRA", "CID_NAXOS", "OCLC_NUMBER", "BIB_ID", "CONTROL_NO"}

// WriteSQLite replaces path with a database holding one TEXT-columned table per input.
func WriteSQLite(path string, tables []Table) error {
	if err := removeIfExists(path); err != nil {
		return err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	defer db.Close()

	for _, t := range tables {
		if err := writeTable(db, t); err != nil {
			return fmt.Errorf("failed to export table %s: %w", t.Name, err)
		}
	}
	return nil
}

func writeTable(db *sql.DB, t Table) error {
	defs := make([]string, 0, len(t.Columns))
	quoted := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		defs = append(defs, fmt.Sprintf("%q TEXT", c))
		quoted = append(quoted, fmt.Sprintf("%q", c))
	}
	if _, err := db.Exec(fmt.Sprintf(`CREATE TABLE %q (%s)`, t.Name, strings.Join(defs, ","))); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	ph := strings.TrimRight(strings.Repeat("?,", len(t.Columns)), ",")
	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`, t.Name, strings.Join(quoted, ","), ph))
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i, r := range t.Rows {
		args := make([]any, len(r))
		for j, v := range r {
			args[j] = v
		}
		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	for _, c := range t.Columns {
		for _, k := range keyColumns {
			if strings.EqualFold(c, k) {
				idx := fmt.Sprintf(`CREATE INDEX %q ON %q (%q)`, "idx_"+t.Name+"_"+strings.ToLower(c), t.Name, c)
				if _, err := db.Exec(idx); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
