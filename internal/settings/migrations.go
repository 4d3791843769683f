package settings

import (
	"database/sql"

	"github.com/HerbHall/startpage/pkg/plugin"
)

func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create settings_kv table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE IF NOT EXISTS settings_kv (
						key        TEXT     PRIMARY KEY,
						value      TEXT     NOT NULL,
						updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`)
				return err
			},
		},
	}
}
