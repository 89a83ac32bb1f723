package postgres

// Schema creates the tables read and written by the stores in this package.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS repairers (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		address      TEXT NOT NULL DEFAULT '',
		city         TEXT NOT NULL DEFAULT '',
		postal_code  TEXT NOT NULL DEFAULT '',
		phone        TEXT,
		email        TEXT,
		rating       DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (rating >= 0 AND rating <= 5),
		latitude     DOUBLE PRECISION,
		longitude    DOUBLE PRECISION,
		is_verified  BOOLEAN NOT NULL DEFAULT FALSE,
		specialties  TEXT[] NOT NULL DEFAULT '{}',
		services     TEXT[] NOT NULL DEFAULT '{}'
	)`,
	`CREATE INDEX IF NOT EXISTS repairers_rating_idx ON repairers (rating DESC, id)`,
	`CREATE INDEX IF NOT EXISTS repairers_geo_idx ON repairers (latitude, longitude)`,
	`CREATE INDEX IF NOT EXISTS repairers_postal_code_idx ON repairers (postal_code text_pattern_ops)`,

	`CREATE TABLE IF NOT EXISTS repairer_profiles (
		repairer_id    TEXT PRIMARY KEY REFERENCES repairers (id) ON DELETE CASCADE,
		repairer_level SMALLINT NOT NULL DEFAULT 0 CHECK (repairer_level BETWEEN 0 AND 3)
	)`,

	`CREATE TABLE IF NOT EXISTS search_queries (
		id            UUID PRIMARY KEY,
		raw_query     TEXT NOT NULL,
		parsed_intent JSONB NOT NULL,
		matched_ids   TEXT[] NOT NULL DEFAULT '{}',
		results_count INTEGER NOT NULL,
		used_fallback BOOLEAN NOT NULL,
		session_id    TEXT,
		user_id       TEXT,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS search_queries_created_at_idx ON search_queries (created_at DESC)`,
}
