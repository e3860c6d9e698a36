// Package persistence stores vault snapshots in SQLite.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/vaultsim/internal/engine"
	"github.com/talgya/vaultsim/internal/errs"
	"github.com/talgya/vaultsim/internal/vault"
)

var _ engine.Store = (*DB)(nil)

// DB wraps a SQLite connection and implements engine.Store. Each Update runs
// in one transaction, so a snapshot and the events it produced are written
// together or not at all.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite has one writer; a single connection keeps transactions from
	// tripping over each other.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS vaults (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		number INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		power REAL NOT NULL,
		power_max REAL NOT NULL,
		food REAL NOT NULL,
		food_max REAL NOT NULL,
		water REAL NOT NULL,
		water_max REAL NOT NULL,
		caps REAL NOT NULL,
		caps_max REAL NOT NULL,
		happiness REAL NOT NULL,
		happiness_max REAL NOT NULL,
		last_tick_time INTEGER NOT NULL,
		is_paused INTEGER NOT NULL,
		paused_at INTEGER,
		resumed_at INTEGER,
		total_game_time INTEGER NOT NULL,
		storage_max INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS dwellers (
		id TEXT PRIMARY KEY,
		vault_id TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		gender TEXT NOT NULL,
		age_group TEXT NOT NULL,
		born_at INTEGER NOT NULL,
		mother_id TEXT,
		father_id TEXT,
		status TEXT NOT NULL,
		special_json TEXT NOT NULL,
		room_id TEXT,
		return_room_id TEXT,
		level INTEGER NOT NULL,
		experience INTEGER NOT NULL,
		health REAL NOT NULL,
		max_health REAL NOT NULL,
		happiness REAL NOT NULL,
		training_progress INTEGER NOT NULL,
		is_dead INTEGER NOT NULL,
		is_permanently_dead INTEGER NOT NULL,
		death_timestamp INTEGER,
		death_cause TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		vault_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		category TEXT NOT NULL,
		ability TEXT NOT NULL,
		output TEXT NOT NULL,
		base_output REAL NOT NULL,
		size INTEGER NOT NULL,
		tier INTEGER NOT NULL,
		floor INTEGER NOT NULL,
		col INTEGER NOT NULL,
		rushed_at INTEGER
	);

	CREATE TABLE IF NOT EXISTS explorations (
		id TEXT PRIMARY KEY,
		vault_id TEXT NOT NULL,
		dweller_id TEXT NOT NULL,
		status TEXT NOT NULL,
		start_time INTEGER NOT NULL,
		duration INTEGER NOT NULL,
		end_time INTEGER,
		stats_json TEXT NOT NULL,
		events_json TEXT NOT NULL,
		loot_json TEXT NOT NULL,
		caps INTEGER NOT NULL,
		enemies_defeated INTEGER NOT NULL,
		health_lost REAL NOT NULL,
		next_event_at INTEGER NOT NULL,
		rewards_json TEXT
	);

	CREATE TABLE IF NOT EXISTS pregnancies (
		id TEXT PRIMARY KEY,
		vault_id TEXT NOT NULL,
		mother_id TEXT NOT NULL,
		father_id TEXT NOT NULL,
		conceived_at INTEGER NOT NULL,
		due_at INTEGER NOT NULL,
		status TEXT NOT NULL,
		child_id TEXT
	);

	CREATE TABLE IF NOT EXISTS incidents (
		id TEXT PRIMARY KEY,
		vault_id TEXT NOT NULL,
		room_id TEXT NOT NULL,
		type TEXT NOT NULL,
		severity INTEGER NOT NULL,
		strength REAL NOT NULL,
		start_time INTEGER NOT NULL,
		end_time INTEGER,
		last_spread_time INTEGER NOT NULL,
		outcome TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS storage_items (
		id TEXT PRIMARY KEY,
		vault_id TEXT NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		rarity TEXT NOT NULL,
		value INTEGER NOT NULL,
		found_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS relationships (
		vault_id TEXT NOT NULL,
		a TEXT NOT NULL,
		b TEXT NOT NULL,
		affinity INTEGER NOT NULL,
		PRIMARY KEY (vault_id, a, b)
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		vault_id TEXT NOT NULL,
		at INTEGER NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL,
		meta_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_dwellers_vault ON dwellers(vault_id);
	CREATE INDEX IF NOT EXISTS idx_rooms_vault ON rooms(vault_id);
	CREATE INDEX IF NOT EXISTS idx_explorations_vault ON explorations(vault_id);
	CREATE INDEX IF NOT EXISTS idx_pregnancies_vault ON pregnancies(vault_id);
	CREATE INDEX IF NOT EXISTS idx_incidents_vault ON incidents(vault_id);
	CREATE INDEX IF NOT EXISTS idx_storage_vault ON storage_items(vault_id);
	CREATE INDEX IF NOT EXISTS idx_events_vault_at ON events(vault_id, at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Create stores a new vault and its pending events.
func (db *DB) Create(ctx context.Context, st *vault.State) error {
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n, "SELECT COUNT(*) FROM vaults WHERE id = ?", st.Vault.ID); err != nil {
			return err
		}
		if n > 0 {
			return errs.Invalidf("vault %s already exists", st.Vault.ID)
		}
		c := st.Clone()
		if err := save(ctx, tx, c); err != nil {
			return err
		}
		return appendEvents(ctx, tx, c.DrainOutbox())
	})
}

// VaultIDs lists every stored vault in id order.
func (db *DB) VaultIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := db.conn.SelectContext(ctx, &ids, "SELECT id FROM vaults ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list vaults: %w", err)
	}
	return ids, nil
}

// View loads a snapshot of one vault.
func (db *DB) View(ctx context.Context, vaultID string) (*vault.State, error) {
	return load(ctx, db.conn, vaultID)
}

// Update loads a vault, runs fn on it and writes the result back with the
// events fn emitted. Nothing is written if fn fails.
func (db *DB) Update(ctx context.Context, vaultID string, fn func(*vault.State) error) error {
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		st, err := load(ctx, tx, vaultID)
		if err != nil {
			return err
		}
		if err := fn(st); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := save(ctx, tx, st); err != nil {
			return err
		}
		return appendEvents(ctx, tx, st.DrainOutbox())
	})
}

func (db *DB) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (db *DB) LocateDweller(ctx context.Context, id string) (string, error) {
	return db.locate(ctx, "dwellers", "dweller", id)
}

func (db *DB) LocateExploration(ctx context.Context, id string) (string, error) {
	return db.locate(ctx, "explorations", "exploration", id)
}

func (db *DB) LocatePregnancy(ctx context.Context, id string) (string, error) {
	return db.locate(ctx, "pregnancies", "pregnancy", id)
}

func (db *DB) LocateRoom(ctx context.Context, id string) (string, error) {
	return db.locate(ctx, "rooms", "room", id)
}

// locate finds the owning vault of an entity. table is always a constant.
func (db *DB) locate(ctx context.Context, table, kind, id string) (string, error) {
	var vaultID string
	err := db.conn.GetContext(ctx, &vaultID, "SELECT vault_id FROM "+table+" WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errs.NotFoundf("%s %s not found", kind, id)
	}
	if err != nil {
		return "", fmt.Errorf("locate %s: %w", kind, err)
	}
	return vaultID, nil
}

// RecentEvents returns the most recent events of a vault, newest first.
func (db *DB) RecentEvents(ctx context.Context, vaultID string, limit int) ([]vault.Event, error) {
	var rows []eventRow
	err := db.conn.SelectContext(ctx, &rows,
		"SELECT * FROM events WHERE vault_id = ? ORDER BY at DESC, rowid DESC LIMIT ?",
		vaultID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	out := make([]vault.Event, 0, len(rows))
	for _, r := range rows {
		e, err := r.toEvent()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

type queryer interface {
	sqlx.QueryerContext
}

func load(ctx context.Context, q queryer, vaultID string) (*vault.State, error) {
	var vr vaultRow
	err := sqlx.GetContext(ctx, q, &vr, "SELECT * FROM vaults WHERE id = ?", vaultID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFoundf("vault %s not found", vaultID)
	}
	if err != nil {
		return nil, fmt.Errorf("load vault: %w", err)
	}
	v := vr.toVault()
	st := vault.NewState(&v, vr.StorageMax)

	var dwellers []dwellerRow
	if err := sqlx.SelectContext(ctx, q, &dwellers, "SELECT * FROM dwellers WHERE vault_id = ? ORDER BY rowid", vaultID); err != nil {
		return nil, fmt.Errorf("load dwellers: %w", err)
	}
	for _, r := range dwellers {
		d, err := r.toDweller()
		if err != nil {
			return nil, err
		}
		st.Dwellers = append(st.Dwellers, d)
	}

	var rooms []roomRow
	if err := sqlx.SelectContext(ctx, q, &rooms, "SELECT * FROM rooms WHERE vault_id = ? ORDER BY rowid", vaultID); err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}
	for _, r := range rooms {
		st.Rooms = append(st.Rooms, r.toRoom())
	}

	var trips []explorationRow
	if err := sqlx.SelectContext(ctx, q, &trips, "SELECT * FROM explorations WHERE vault_id = ? ORDER BY rowid", vaultID); err != nil {
		return nil, fmt.Errorf("load explorations: %w", err)
	}
	for _, r := range trips {
		x, err := r.toExploration()
		if err != nil {
			return nil, err
		}
		st.Explorations = append(st.Explorations, x)
	}

	var pregnancies []pregnancyRow
	if err := sqlx.SelectContext(ctx, q, &pregnancies, "SELECT * FROM pregnancies WHERE vault_id = ? ORDER BY rowid", vaultID); err != nil {
		return nil, fmt.Errorf("load pregnancies: %w", err)
	}
	for _, r := range pregnancies {
		st.Pregnancies = append(st.Pregnancies, r.toPregnancy())
	}

	var incidents []incidentRow
	if err := sqlx.SelectContext(ctx, q, &incidents, "SELECT * FROM incidents WHERE vault_id = ? ORDER BY rowid", vaultID); err != nil {
		return nil, fmt.Errorf("load incidents: %w", err)
	}
	for _, r := range incidents {
		st.Incidents = append(st.Incidents, r.toIncident())
	}

	var items []itemRow
	if err := sqlx.SelectContext(ctx, q, &items, "SELECT * FROM storage_items WHERE vault_id = ? ORDER BY rowid", vaultID); err != nil {
		return nil, fmt.Errorf("load storage: %w", err)
	}
	for _, r := range items {
		st.Storage.Items = append(st.Storage.Items, r.toItem())
	}

	var rels []relationshipRow
	if err := sqlx.SelectContext(ctx, q, &rels, "SELECT * FROM relationships WHERE vault_id = ? ORDER BY rowid", vaultID); err != nil {
		return nil, fmt.Errorf("load relationships: %w", err)
	}
	for _, r := range rels {
		st.Relationships = append(st.Relationships, &vault.Relationship{A: r.A, B: r.B, Affinity: r.Affinity})
	}
	return st, nil
}

// childTables hold per-vault rows that save replaces wholesale.
var childTables = []string{"dwellers", "rooms", "explorations", "pregnancies", "incidents", "storage_items", "relationships"}

// save writes a full snapshot, replacing whatever the vault had before.
func save(ctx context.Context, tx *sqlx.Tx, st *vault.State) error {
	id := st.Vault.ID
	if _, err := tx.NamedExecContext(ctx, `INSERT OR REPLACE INTO vaults
		(id, name, number, seed, power, power_max, food, food_max, water, water_max,
		 caps, caps_max, happiness, happiness_max, last_tick_time, is_paused,
		 paused_at, resumed_at, total_game_time, storage_max, created_at)
		VALUES (:id, :name, :number, :seed, :power, :power_max, :food, :food_max, :water, :water_max,
		 :caps, :caps_max, :happiness, :happiness_max, :last_tick_time, :is_paused,
		 :paused_at, :resumed_at, :total_game_time, :storage_max, :created_at)`,
		newVaultRow(st.Vault, st.Storage.MaxSpace)); err != nil {
		return fmt.Errorf("save vault %s: %w", id, err)
	}

	for _, table := range childTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE vault_id = ?", id); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	dwellers := make([]dwellerRow, 0, len(st.Dwellers))
	for _, d := range st.Dwellers {
		r, err := newDwellerRow(d)
		if err != nil {
			return err
		}
		dwellers = append(dwellers, r)
	}
	if err := insertAll(ctx, tx, `INSERT INTO dwellers
		(id, vault_id, first_name, last_name, gender, age_group, born_at, mother_id, father_id,
		 status, special_json, room_id, return_room_id, level, experience, health, max_health,
		 happiness, training_progress, is_dead, is_permanently_dead, death_timestamp, death_cause)
		VALUES (:id, :vault_id, :first_name, :last_name, :gender, :age_group, :born_at, :mother_id, :father_id,
		 :status, :special_json, :room_id, :return_room_id, :level, :experience, :health, :max_health,
		 :happiness, :training_progress, :is_dead, :is_permanently_dead, :death_timestamp, :death_cause)`,
		dwellers); err != nil {
		return fmt.Errorf("save dwellers: %w", err)
	}

	rooms := make([]roomRow, 0, len(st.Rooms))
	for _, r := range st.Rooms {
		rooms = append(rooms, newRoomRow(r))
	}
	if err := insertAll(ctx, tx, `INSERT INTO rooms
		(id, vault_id, kind, category, ability, output, base_output, size, tier, floor, col, rushed_at)
		VALUES (:id, :vault_id, :kind, :category, :ability, :output, :base_output, :size, :tier, :floor, :col, :rushed_at)`,
		rooms); err != nil {
		return fmt.Errorf("save rooms: %w", err)
	}

	trips := make([]explorationRow, 0, len(st.Explorations))
	for _, x := range st.Explorations {
		r, err := newExplorationRow(x)
		if err != nil {
			return err
		}
		trips = append(trips, r)
	}
	if err := insertAll(ctx, tx, `INSERT INTO explorations
		(id, vault_id, dweller_id, status, start_time, duration, end_time, stats_json, events_json,
		 loot_json, caps, enemies_defeated, health_lost, next_event_at, rewards_json)
		VALUES (:id, :vault_id, :dweller_id, :status, :start_time, :duration, :end_time, :stats_json, :events_json,
		 :loot_json, :caps, :enemies_defeated, :health_lost, :next_event_at, :rewards_json)`,
		trips); err != nil {
		return fmt.Errorf("save explorations: %w", err)
	}

	pregnancies := make([]pregnancyRow, 0, len(st.Pregnancies))
	for _, p := range st.Pregnancies {
		pregnancies = append(pregnancies, newPregnancyRow(p))
	}
	if err := insertAll(ctx, tx, `INSERT INTO pregnancies
		(id, vault_id, mother_id, father_id, conceived_at, due_at, status, child_id)
		VALUES (:id, :vault_id, :mother_id, :father_id, :conceived_at, :due_at, :status, :child_id)`,
		pregnancies); err != nil {
		return fmt.Errorf("save pregnancies: %w", err)
	}

	incidents := make([]incidentRow, 0, len(st.Incidents))
	for _, inc := range st.Incidents {
		incidents = append(incidents, newIncidentRow(inc))
	}
	if err := insertAll(ctx, tx, `INSERT INTO incidents
		(id, vault_id, room_id, type, severity, strength, start_time, end_time, last_spread_time, outcome)
		VALUES (:id, :vault_id, :room_id, :type, :severity, :strength, :start_time, :end_time, :last_spread_time, :outcome)`,
		incidents); err != nil {
		return fmt.Errorf("save incidents: %w", err)
	}

	items := make([]itemRow, 0, len(st.Storage.Items))
	for _, it := range st.Storage.Items {
		items = append(items, newItemRow(id, it))
	}
	if err := insertAll(ctx, tx, `INSERT INTO storage_items
		(id, vault_id, name, kind, rarity, value, found_at)
		VALUES (:id, :vault_id, :name, :kind, :rarity, :value, :found_at)`,
		items); err != nil {
		return fmt.Errorf("save storage: %w", err)
	}

	rels := make([]relationshipRow, 0, len(st.Relationships))
	for _, r := range st.Relationships {
		rels = append(rels, relationshipRow{VaultID: id, A: r.A, B: r.B, Affinity: r.Affinity})
	}
	if err := insertAll(ctx, tx, `INSERT INTO relationships (vault_id, a, b, affinity)
		VALUES (:vault_id, :a, :b, :affinity)`, rels); err != nil {
		return fmt.Errorf("save relationships: %w", err)
	}
	return nil
}

// insertAll runs a named insert once per row through one prepared statement.
func insertAll[T any](ctx context.Context, tx *sqlx.Tx, query string, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func appendEvents(ctx context.Context, tx *sqlx.Tx, events []vault.Event) error {
	rows := make([]eventRow, 0, len(events))
	for _, e := range events {
		r, err := newEventRow(e)
		if err != nil {
			return err
		}
		rows = append(rows, r)
	}
	if err := insertAll(ctx, tx, `INSERT INTO events (id, vault_id, at, category, description, meta_json)
		VALUES (:id, :vault_id, :at, :category, :description, :meta_json)`, rows); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if len(rows) > 0 {
		slog.Debug("events committed", "vault_id", rows[0].VaultID, "count", len(rows))
	}
	return nil
}
