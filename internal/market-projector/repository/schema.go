package repository

// Schema é o modelo de leitura alimentado pelo tópico market_events.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS market_events (
		seq        BIGINT PRIMARY KEY,
		id         UUID NOT NULL,
		kind       TEXT NOT NULL,
		market_id  BIGINT,
		payload    JSONB NOT NULL,
		emitted_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS market_events_market_idx ON market_events (market_id, seq)`,
	`CREATE TABLE IF NOT EXISTS markets (
		id              BIGINT PRIMARY KEY,
		question        TEXT NOT NULL,
		outcomes        TEXT[] NOT NULL,
		resolution_time BIGINT NOT NULL,
		betting_asset   TEXT NOT NULL,
		creator         TEXT NOT NULL,
		bet_count       INT NOT NULL DEFAULT 0,
		outcome_pools   NUMERIC(78,0)[] NOT NULL,
		fees            NUMERIC(78,0) NOT NULL DEFAULT 0,
		resolved        BOOLEAN NOT NULL DEFAULT false,
		winning_outcome INT,
		winning_pool    NUMERIC(78,0),
		losing_pool     NUMERIC(78,0),
		residual        NUMERIC(78,0) NOT NULL DEFAULT 0,
		created_at      TIMESTAMPTZ NOT NULL,
		resolved_at     TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS bets (
		market_id     BIGINT NOT NULL REFERENCES markets(id),
		bet_index     INT NOT NULL,
		user_address  TEXT NOT NULL,
		amount        NUMERIC(78,0) NOT NULL,
		fee           NUMERIC(78,0) NOT NULL,
		outcome_index INT NOT NULL,
		token         TEXT NOT NULL,
		relayed       BOOLEAN NOT NULL DEFAULT false,
		from_stake    BOOLEAN NOT NULL DEFAULT false,
		placed_at     TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (market_id, bet_index)
	)`,
	`CREATE INDEX IF NOT EXISTS bets_user_idx ON bets (user_address)`,
	`CREATE TABLE IF NOT EXISTS payouts (
		seq          BIGINT PRIMARY KEY,
		market_id    BIGINT NOT NULL REFERENCES markets(id),
		user_address TEXT NOT NULL,
		token        TEXT NOT NULL,
		amount       NUMERIC(78,0) NOT NULL,
		refund       BOOLEAN NOT NULL DEFAULT false,
		retry        BOOLEAN NOT NULL DEFAULT false,
		status       TEXT NOT NULL,
		reason       TEXT,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS payouts_market_idx ON payouts (market_id, user_address)`,
	`CREATE TABLE IF NOT EXISTS stakes (
		user_address TEXT NOT NULL,
		token        TEXT NOT NULL,
		amount       NUMERIC(78,0) NOT NULL DEFAULT 0,
		updated_at   TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_address, token)
	)`,
	`CREATE TABLE IF NOT EXISTS market_admin (
		id         SMALLINT PRIMARY KEY DEFAULT 1,
		owner      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}
