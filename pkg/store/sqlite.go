package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/chazu/brickify/pkg/bricks"
)

// SQLite exports merged bricks into a SQLite database. Each SaveBricks call
// records one run; bricks and cells reference it.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("store: empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("store: %s: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			seed INTEGER NOT NULL,
			dim_x INTEGER NOT NULL,
			dim_y INTEGER NOT NULL,
			dim_z INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS bricks (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			w INTEGER NOT NULL,
			d INTEGER NOT NULL,
			h INTEGER NOT NULL,
			material TEXT NOT NULL,
			center_x REAL NOT NULL,
			center_y REAL NOT NULL,
			center_z REAL NOT NULL,
			top_exposed INTEGER NOT NULL,
			bot_exposed INTEGER NOT NULL,
			PRIMARY KEY (run_id, x, y, z)
		);`,
		`CREATE TABLE IF NOT EXISTS cells (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			value REAL NOT NULL,
			material TEXT NOT NULL,
			root_x INTEGER NOT NULL,
			root_y INTEGER NOT NULL,
			root_z INTEGER NOT NULL,
			PRIMARY KEY (run_id, x, y, z)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_bricks_material ON bricks(run_id, material);`,
		`CREATE INDEX IF NOT EXISTS idx_cells_root ON cells(run_id, root_x, root_y, root_z);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// SaveBricks writes one run: a row per merge root and a row per cell covered
// by a root. It returns the new run id. Everything is written in a single
// transaction.
func (s *SQLite) SaveBricks(ctx context.Context, d *bricks.Dict, seed int64, source string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs(source,seed,dim_x,dim_y,dim_z) VALUES(?,?,?,?,?)`,
		source, seed, d.Dims[0], d.Dims[1], d.Dims[2])
	if err != nil {
		return 0, fmt.Errorf("store: insert run: %w", err)
	}
	run, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	insertBrick, err := tx.PrepareContext(ctx, `INSERT INTO bricks(run_id,name,x,y,z,w,d,h,material,center_x,center_y,center_z,top_exposed,bot_exposed)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, err
	}
	defer insertBrick.Close()
	insertCell, err := tx.PrepareContext(ctx, `INSERT INTO cells(run_id,x,y,z,value,material,root_x,root_y,root_z)
		VALUES(?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, err
	}
	defer insertCell.Close()

	for _, b := range bricks.Summaries(d) {
		f := b.Footprint
		if _, err := insertBrick.ExecContext(ctx, run, b.Name, b.Key.X, b.Key.Y, b.Key.Z, f.W, f.D, f.H,
			b.Material, b.Center.X, b.Center.Y, b.Center.Z, b.TopExposed, b.BotExposed); err != nil {
			return 0, fmt.Errorf("store: insert brick %s: %w", b.Key, err)
		}
		for _, k := range d.Covered(b.Key) {
			c, ok := d.Get(k)
			if !ok {
				continue
			}
			if _, err := insertCell.ExecContext(ctx, run, k.X, k.Y, k.Z, c.Value, c.Material,
				b.Key.X, b.Key.Y, b.Key.Z); err != nil {
				return 0, fmt.Errorf("store: insert cell %s: %w", k, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return run, nil
}

// LoadBricks reads the bricks of one run in Z, Y, X order.
func (s *SQLite) LoadBricks(ctx context.Context, run int64) ([]bricks.Brick, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name,x,y,z,w,d,h,material,center_x,center_y,center_z,top_exposed,bot_exposed
		FROM bricks WHERE run_id=? ORDER BY z,y,x`, run)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []bricks.Brick
	for rows.Next() {
		var b bricks.Brick
		if err := rows.Scan(&b.Name, &b.Key.X, &b.Key.Y, &b.Key.Z,
			&b.Footprint.W, &b.Footprint.D, &b.Footprint.H, &b.Material,
			&b.Center.X, &b.Center.Y, &b.Center.Z, &b.TopExposed, &b.BotExposed); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CellCount returns the number of cells stored for a run.
func (s *SQLite) CellCount(ctx context.Context, run int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cells WHERE run_id=?`, run).Scan(&n)
	return n, err
}
