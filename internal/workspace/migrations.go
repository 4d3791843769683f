package workspace

import (
	"database/sql"

	"github.com/HerbHall/startpage/pkg/plugin"
)

// migrations returns the workspace module's database migrations.
func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create workspaces table",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS workspaces (
						id         TEXT    PRIMARY KEY,
						name       TEXT    NOT NULL,
						position   INTEGER NOT NULL,
						created_at TEXT    NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_workspaces_position ON workspaces(position)`,
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
