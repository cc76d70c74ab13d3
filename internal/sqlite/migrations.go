package sqlite

func (s *Storage) RunMigrations() error {
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS credentials (
		owner_id VARCHAR NOT NULL PRIMARY KEY,
		access_token TEXT NULL,
		refresh_token TEXT NOT NULL,
		expires_at TIMESTAMP NULL,
		token_type VARCHAR NULL,
		scope TEXT NULL,
		calendar_id VARCHAR NOT NULL DEFAULT 'primary',
		revoked_at TIMESTAMP NULL
	)`,
}
