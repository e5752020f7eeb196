// Package postgres installs SQL helpers for working with snowflake IDs stored
// in BIGINT columns: field extraction, base58/hex encoding, and a DB-side
// allocator for rows inserted outside the application.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/paraglidehq/snowflake"
)

// Config holds the snowflake bit layout and the datacenter/node pair
// reserved for IDs allocated by the database itself.
type Config struct {
	Epoch          int64 // Unix milliseconds
	DatacenterBits uint8
	NodeBits       uint8
	SeqBits        uint8

	// DatacenterID and NodeID are stamped into snowflake_next_id() results.
	// They must not be handed to any application Generator.
	DatacenterID int64
	NodeID       int64
}

// DefaultConfig matches the layout of the snowflake package and reserves
// the highest datacenter/node pair for the database.
func DefaultConfig() Config {
	return Config{
		Epoch:          snowflake.Epoch,
		DatacenterBits: snowflake.DatacenterBits,
		NodeBits:       snowflake.NodeBits,
		SeqBits:        snowflake.SeqBits,
		DatacenterID:   snowflake.MaxDatacenterID,
		NodeID:         snowflake.MaxNodeID,
	}
}

// Computed values
func (c Config) NodeShift() uint8       { return c.SeqBits }
func (c Config) DatacenterShift() uint8 { return c.SeqBits + c.NodeBits }
func (c Config) TimeShift() uint8       { return c.SeqBits + c.NodeBits + c.DatacenterBits }
func (c Config) MaxDatacenter() int64   { return (1 << c.DatacenterBits) - 1 }
func (c Config) MaxNode() int64         { return (1 << c.NodeBits) - 1 }
func (c Config) MaxSeq() int64          { return (1 << c.SeqBits) - 1 }

// Validate checks that the layout leaves room for a timestamp and that the
// reserved pair fits in it.
func (c Config) Validate() error {
	if c.TimeShift() >= 63 || c.DatacenterBits == 0 || c.NodeBits == 0 || c.SeqBits == 0 {
		return fmt.Errorf("%w: bit layout %d/%d/%d leaves no room for a timestamp",
			snowflake.ErrInvalidConfiguration, c.DatacenterBits, c.NodeBits, c.SeqBits)
	}
	if c.DatacenterID < 0 || c.DatacenterID > c.MaxDatacenter() {
		return fmt.Errorf("%w: datacenter_id must be an integer n, where 0 ≤ n ≤ %d",
			snowflake.ErrInvalidConfiguration, c.MaxDatacenter())
	}
	if c.NodeID < 0 || c.NodeID > c.MaxNode() {
		return fmt.Errorf("%w: node_id must be an integer n, where 0 ≤ n ≤ %d",
			snowflake.ErrInvalidConfiguration, c.MaxNode())
	}
	return nil
}

var ErrConfigMismatch = errors.New("snowflake: database layout does not match application layout")

// Migrate installs the snowflake helpers. It is idempotent. If the database
// already records a different bit layout, it returns ErrConfigMismatch.
func Migrate(ctx context.Context, db *sql.DB, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS _snowflake_config (
			id int PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			epoch bigint NOT NULL,
			datacenter_bits int NOT NULL,
			node_bits int NOT NULL,
			seq_bits int NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("snowflake: create config table: %w", err)
	}

	stored, err := GetConfig(ctx, db)
	switch {
	case err == nil:
		if !stored.sameLayout(cfg) {
			return fmt.Errorf("%w: db has epoch=%d bits=%d/%d/%d, app has epoch=%d bits=%d/%d/%d",
				ErrConfigMismatch,
				stored.Epoch, stored.DatacenterBits, stored.NodeBits, stored.SeqBits,
				cfg.Epoch, cfg.DatacenterBits, cfg.NodeBits, cfg.SeqBits)
		}
	case errors.Is(err, sql.ErrNoRows):
		_, err = db.ExecContext(ctx,
			`INSERT INTO _snowflake_config (epoch, datacenter_bits, node_bits, seq_bits) VALUES ($1, $2, $3, $4)`,
			cfg.Epoch, cfg.DatacenterBits, cfg.NodeBits, cfg.SeqBits)
		if err != nil {
			return fmt.Errorf("snowflake: insert config: %w", err)
		}
	default:
		return fmt.Errorf("snowflake: read config: %w", err)
	}

	if _, err := db.ExecContext(ctx, generateSQL(cfg)); err != nil {
		return fmt.Errorf("snowflake: run migrations: %w", err)
	}
	return nil
}

// GetConfig reads the bit layout recorded by Migrate. The reserved
// datacenter/node pair is not stored and is left zero.
func GetConfig(ctx context.Context, db *sql.DB) (Config, error) {
	var cfg Config
	var datacenterBits, nodeBits, seqBits int
	err := db.QueryRowContext(ctx,
		`SELECT epoch, datacenter_bits, node_bits, seq_bits FROM _snowflake_config`,
	).Scan(&cfg.Epoch, &datacenterBits, &nodeBits, &seqBits)
	if err != nil {
		return cfg, err
	}
	cfg.DatacenterBits = uint8(datacenterBits)
	cfg.NodeBits = uint8(nodeBits)
	cfg.SeqBits = uint8(seqBits)
	return cfg, nil
}

func (c Config) sameLayout(o Config) bool {
	return c.Epoch == o.Epoch &&
		c.DatacenterBits == o.DatacenterBits &&
		c.NodeBits == o.NodeBits &&
		c.SeqBits == o.SeqBits
}

func generateSQL(cfg Config) string {
	return fmt.Sprintf(`
-- Sequence counter for DB-side allocation. It cycles instead of resetting
-- each millisecond, so at most %[1]d+1 IDs per millisecond are unique.
CREATE SEQUENCE IF NOT EXISTS snowflake_seq MINVALUE 0 START 0 MAXVALUE %[1]d CYCLE;

CREATE OR REPLACE FUNCTION snowflake_next_id()
  RETURNS bigint
  LANGUAGE plpgsql
  VOLATILE
  AS $$
DECLARE
  now_ms bigint;
  seq bigint;
BEGIN
  now_ms := floor(extract(epoch FROM clock_timestamp()) * 1000)::bigint - %[2]d;
  seq := nextval('snowflake_seq');
  RETURN (now_ms << %[3]d) | (%[4]d::bigint << %[5]d) | (%[6]d::bigint << %[7]d) | seq;
END;
$$;

-- Field extraction
CREATE OR REPLACE FUNCTION snowflake_millis(id bigint)
  RETURNS bigint
  LANGUAGE sql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$ SELECT (id >> %[3]d) + %[2]d; $$;

CREATE OR REPLACE FUNCTION snowflake_datacenter(id bigint)
  RETURNS int
  LANGUAGE sql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$ SELECT ((id >> %[5]d) & %[8]d)::int; $$;

CREATE OR REPLACE FUNCTION snowflake_node(id bigint)
  RETURNS int
  LANGUAGE sql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$ SELECT ((id >> %[7]d) & %[9]d)::int; $$;

CREATE OR REPLACE FUNCTION snowflake_seq(id bigint)
  RETURNS int
  LANGUAGE sql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$ SELECT (id & %[1]d)::int; $$;

-- Base58 (Bitcoin alphabet), non-negative ids only
CREATE OR REPLACE FUNCTION b58_to_snowflake(encoded text)
  RETURNS bigint
  LANGUAGE plpgsql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$
DECLARE
  alphabet text := '123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz';
  p int;
  result bigint := 0;
BEGIN
  FOR i IN 1..char_length(encoded) LOOP
    p := strpos(alphabet, substr(encoded, i, 1));
    IF p = 0 THEN
      RAISE EXCEPTION 'invalid base58 character: %%', substr(encoded, i, 1);
    END IF;
    result := result * 58 + (p - 1);
  END LOOP;
  RETURN result;
END;
$$;

CREATE OR REPLACE FUNCTION snowflake_to_b58(id bigint)
  RETURNS text
  LANGUAGE plpgsql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$
DECLARE
  alphabet text := '123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz';
  result text := '';
BEGIN
  IF id = 0 THEN
    RETURN '1';
  END IF;
  WHILE id > 0 LOOP
    result := substr(alphabet, (id %% 58)::int + 1, 1) || result;
    id := id / 58;
  END LOOP;
  RETURN result;
END;
$$;

-- Hex
CREATE OR REPLACE FUNCTION hex_to_snowflake(encoded text)
  RETURNS bigint
  LANGUAGE sql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$ SELECT ('x' || lpad(encoded, 16, '0'))::bit(64)::bigint; $$;

CREATE OR REPLACE FUNCTION snowflake_to_hex(id bigint)
  RETURNS text
  LANGUAGE sql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$ SELECT to_hex(id); $$;
`,
		cfg.MaxSeq(),          // 1: sequence max / mask
		cfg.Epoch,             // 2
		cfg.TimeShift(),       // 3
		cfg.DatacenterID,      // 4
		cfg.DatacenterShift(), // 5
		cfg.NodeID,            // 6
		cfg.NodeShift(),       // 7
		cfg.MaxDatacenter(),   // 8: datacenter mask
		cfg.MaxNode(),         // 9: node mask
	)
}
