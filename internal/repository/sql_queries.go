package repository

const CreateKVTableSQL = `
CREATE TABLE IF NOT EXISTS kv_store (
    key        TEXT PRIMARY KEY,
    value      JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

const SelectValueSQL = `SELECT value FROM kv_store WHERE key = $1`

const ExistsKeySQL = `SELECT EXISTS (SELECT 1 FROM kv_store WHERE key = $1)`

const UpsertValueSQL = `
INSERT INTO kv_store (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
`

const DeleteKeySQL = `DELETE FROM kv_store WHERE key = $1`
