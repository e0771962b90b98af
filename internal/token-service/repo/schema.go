package repo

// Schema cria as tabelas do ledger de tokens. Valores em wei usam NUMERIC(78,0),
// que comporta qualquer uint256.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS token_balances (
		token      TEXT NOT NULL,
		account    TEXT NOT NULL,
		balance    NUMERIC(78,0) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		version    BIGINT NOT NULL DEFAULT 1,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (token, account)
	)`,
	`CREATE TABLE IF NOT EXISTS token_allowances (
		token      TEXT NOT NULL,
		owner      TEXT NOT NULL,
		spender    TEXT NOT NULL,
		amount     NUMERIC(78,0) NOT NULL DEFAULT 0 CHECK (amount >= 0),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (token, owner, spender)
	)`,
	`CREATE TABLE IF NOT EXISTS token_ledger (
		id           UUID PRIMARY KEY,
		token        TEXT NOT NULL,
		operation    TEXT NOT NULL,
		from_account TEXT,
		to_account   TEXT NOT NULL,
		spender      TEXT,
		amount       NUMERIC(78,0) NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS token_ledger_to_idx ON token_ledger (token, to_account)`,
	`CREATE TABLE IF NOT EXISTS token_rejecting_accounts (
		account    TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}
