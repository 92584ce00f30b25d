package store

import (
	"github.com/mikey/scam-monitor/internal/core"
	"github.com/mikey/scam-monitor/internal/database"
)

func schemaFor(driver string) []string {
	var stmts []string
	for _, ch := range core.AllChannels {
		table, _ := TableFor(ch)
		if driver == database.DriverMySQL {
			stmts = append(stmts, `CREATE TABLE IF NOT EXISTS `+table+` (
				id VARCHAR(36) NOT NULL PRIMARY KEY,
				channel VARCHAR(16) NOT NULL,
				external_id VARCHAR(255) NOT NULL,
				sender VARCHAR(255) NOT NULL,
				content TEXT NOT NULL,
				detected_at DATETIME(6) NOT NULL,
				owner_user_id VARCHAR(128) NOT NULL,
				INDEX idx_`+table+`_owner (owner_user_id, detected_at)
			)`)
			continue
		}
		stmts = append(stmts,
			`CREATE TABLE IF NOT EXISTS `+table+` (
				id TEXT NOT NULL PRIMARY KEY,
				channel TEXT NOT NULL,
				external_id TEXT NOT NULL,
				sender TEXT NOT NULL,
				content TEXT NOT NULL,
				detected_at DATETIME NOT NULL,
				owner_user_id TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_`+table+`_owner ON `+table+`(owner_user_id, detected_at)`)
	}

	if driver == database.DriverMySQL {
		return append(stmts, `CREATE TABLE IF NOT EXISTS settings (
			setting_key VARCHAR(128) NOT NULL PRIMARY KEY,
			setting_value VARCHAR(32) NOT NULL
		)`)
	}
	return append(stmts, `CREATE TABLE IF NOT EXISTS settings (
		setting_key TEXT NOT NULL PRIMARY KEY,
		setting_value TEXT NOT NULL
	)`)
}
