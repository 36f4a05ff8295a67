package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create logs",
		SQL: `
			CREATE TABLE logs (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				content     TEXT NOT NULL,
				created_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_logs_created ON logs (created_at);
		`,
	},
	{
		Version: 2,
		Name:    "create conversation turns",
		SQL: `
			CREATE TABLE turns (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id       TEXT NOT NULL,
				role          TEXT NOT NULL,
				content       TEXT NOT NULL DEFAULT '',
				tool_calls    TEXT,
				tool_call_id  TEXT NOT NULL DEFAULT '',
				tool_name     TEXT NOT NULL DEFAULT '',
				created_at    TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_turns_user ON turns (user_id, id);
		`,
	},
	{
		Version: 3,
		Name:    "create credentials",
		SQL: `
			CREATE TABLE credentials (
				provider       TEXT PRIMARY KEY,
				refresh_token  TEXT NOT NULL,
				updated_at     TEXT NOT NULL DEFAULT (datetime('now'))
			);
		`,
	},
}
