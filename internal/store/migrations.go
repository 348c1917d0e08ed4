package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Concepts table - one reference embedding per sign concept and language
		`CREATE TABLE IF NOT EXISTS concepts (
			id TEXT NOT NULL,
			language TEXT NOT NULL,
			name TEXT NOT NULL,
			dim INTEGER NOT NULL,
			embedding BLOB NOT NULL,
			samples INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id, language)
		)`,

		// Index for language-scoped registry loads
		`CREATE INDEX IF NOT EXISTS idx_concepts_language ON concepts(language)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
