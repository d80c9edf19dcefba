package postgres

import (
	"context"
	"fmt"

	"invoicehub/pkg/logger"
)

// schemaStatements create the tables the service needs. Every statement is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS organizations (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL,
		address     TEXT,
		phone       TEXT,
		email       TEXT,
		is_active   BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id          BIGSERIAL PRIMARY KEY,
		shop_id     BIGINT NOT NULL REFERENCES organizations(id),
		name        TEXT NOT NULL,
		description TEXT,
		price       NUMERIC(14,2) NOT NULL CONSTRAINT chk_product_price CHECK (price >= 0),
		quantity    INTEGER NOT NULL DEFAULT 0 CONSTRAINT chk_product_quantity CHECK (quantity >= 0),
		is_active   BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_shop ON products (shop_id, id)`,
	`CREATE TABLE IF NOT EXISTS users (
		id                    BIGSERIAL PRIMARY KEY,
		username              TEXT NOT NULL UNIQUE,
		email                 TEXT NOT NULL UNIQUE,
		password_hash         TEXT NOT NULL,
		is_active             BOOLEAN NOT NULL DEFAULT TRUE,
		organization_id       BIGINT REFERENCES organizations(id),
		last_login_at         TIMESTAMPTZ,
		failed_login_attempts INTEGER NOT NULL DEFAULT 0,
		locked_until          TIMESTAMPTZ,
		created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS roles (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS user_roles (
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role_id BIGINT NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
		PRIMARY KEY (user_id, role_id)
	)`,
	`CREATE TABLE IF NOT EXISTS invoices (
		id              BIGSERIAL PRIMARY KEY,
		invoice_number  TEXT NOT NULL,
		customer_name   TEXT NOT NULL,
		customer_email  TEXT,
		sub_total       NUMERIC NOT NULL,
		discount_type   TEXT NOT NULL DEFAULT 'none',
		discount_value  NUMERIC NOT NULL DEFAULT 0,
		discount_amount NUMERIC NOT NULL DEFAULT 0,
		tax_rate        NUMERIC NOT NULL DEFAULT 0,
		tax_amount      NUMERIC NOT NULL DEFAULT 0,
		grand_total     NUMERIC NOT NULL,
		payment_method  TEXT,
		payment_status  TEXT NOT NULL DEFAULT 'pending',
		shop_id         BIGINT NOT NULL REFERENCES organizations(id),
		created_by_id   BIGINT NOT NULL REFERENCES users(id),
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT uq_invoice_number_per_shop UNIQUE (shop_id, invoice_number)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_shop_created ON invoices (shop_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS invoice_items (
		id          BIGSERIAL PRIMARY KEY,
		invoice_id  BIGINT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		line_no     INTEGER NOT NULL,
		product_id  BIGINT NOT NULL REFERENCES products(id),
		quantity    INTEGER NOT NULL CONSTRAINT chk_item_quantity CHECK (quantity > 0),
		price       NUMERIC NOT NULL,
		total_price NUMERIC NOT NULL,
		UNIQUE (invoice_id, line_no)
	)`,
	`CREATE TABLE IF NOT EXISTS sys_audit (
		id                 BIGSERIAL PRIMARY KEY,
		entity_type        TEXT NOT NULL,
		entity_id          BIGINT NOT NULL,
		action             TEXT NOT NULL,
		user_id            BIGINT,
		changes            JSONB,
		changes_compressed BYTEA,
		compression_algo   TEXT NOT NULL DEFAULT 'none',
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sys_audit_entity ON sys_audit (entity_type, entity_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS sys_idempotency (
		idempotency_key       TEXT PRIMARY KEY,
		user_id               BIGINT NOT NULL,
		operation             TEXT NOT NULL,
		status                TEXT NOT NULL,
		request_hash          TEXT NOT NULL,
		response              BYTEA,
		response_status       INTEGER,
		response_content_type TEXT,
		created_at            TIMESTAMPTZ NOT NULL,
		updated_at            TIMESTAMPTZ NOT NULL,
		expires_at            TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sys_outbox (
		id             BIGSERIAL PRIMARY KEY,
		aggregate_type TEXT NOT NULL,
		aggregate_id   BIGINT NOT NULL,
		event_type     TEXT NOT NULL,
		payload        JSONB NOT NULL,
		headers        JSONB NOT NULL DEFAULT '{}',
		status         TEXT NOT NULL DEFAULT 'pending',
		retry_count    INTEGER NOT NULL DEFAULT 0,
		last_error     TEXT,
		next_retry_at  TIMESTAMPTZ,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		published_at   TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sys_outbox_pending ON sys_outbox (id) WHERE status = 'pending'`,
}

// EnsureSchema creates missing tables and indexes in one transaction.
func EnsureSchema(ctx context.Context, txManager *TxManager) error {
	err := txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q := txManager.GetQuerier(ctx)
		for i, stmt := range schemaStatements {
			if _, err := q.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("schema statement %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "database schema ensured", "statements", len(schemaStatements))
	return nil
}
