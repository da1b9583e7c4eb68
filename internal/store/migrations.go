package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Action to player operation bindings
		`CREATE TABLE IF NOT EXISTS bindings (
			action TEXT PRIMARY KEY,
			operation TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// One row per completed calibration walk; the newest is active
		`CREATE TABLE IF NOT EXISTS calibrations (
			id TEXT PRIMARY KEY,
			margin REAL NOT NULL,
			samples INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS calibration_thresholds (
			calibration_id TEXT NOT NULL REFERENCES calibrations(id) ON DELETE CASCADE,
			blendshape TEXT NOT NULL,
			threshold REAL NOT NULL CHECK(threshold >= 0),
			PRIMARY KEY (calibration_id, blendshape)
		)`,

		// Raw face samples a calibration was computed from
		`CREATE TABLE IF NOT EXISTS calibration_samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			calibration_id TEXT NOT NULL REFERENCES calibrations(id) ON DELETE CASCADE,
			sample_index INTEGER NOT NULL,
			data TEXT NOT NULL
		)`,

		// Runtime settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Fired commands
		`CREATE TABLE IF NOT EXISTS dispatches (
			id TEXT PRIMARY KEY,
			action TEXT NOT NULL,
			operation TEXT NOT NULL,
			modality TEXT NOT NULL,
			volume INTEGER NOT NULL DEFAULT -1,
			latency_us INTEGER NOT NULL DEFAULT 0,
			fired_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_calibrations_created_at ON calibrations(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_calibration_samples_calibration_id ON calibration_samples(calibration_id)`,
		`CREATE INDEX IF NOT EXISTS idx_dispatches_fired_at ON dispatches(fired_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}
