// Package sqlstore persists structural descriptions in a relational
// database. Each object class gets its own table; declaration order is
// kept in explicit pos columns so a load reproduces the exact enumeration
// order the description was saved with.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/cdfgraph/cdfgraph/backend"
	ncerr "github.com/cdfgraph/cdfgraph/meta/errors"
)

// Store persists descriptions through a database/sql handle. The caller
// owns the handle; sqlite is the tested driver but the SQL is plain
// enough for any engine with BLOB and TEXT columns.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log }
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS groups (
		gid    INTEGER PRIMARY KEY,
		parent INTEGER,
		name   TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS dimensions (
		gid       INTEGER NOT NULL,
		pos       INTEGER NOT NULL,
		id        INTEGER NOT NULL,
		name      TEXT NOT NULL,
		len       INTEGER NOT NULL,
		unlimited INTEGER NOT NULL,
		PRIMARY KEY (gid, pos)
	)`,
	`CREATE TABLE IF NOT EXISTS types (
		gid   INTEGER NOT NULL,
		pos   INTEGER NOT NULL,
		id    INTEGER NOT NULL,
		name  TEXT NOT NULL,
		class TEXT NOT NULL,
		size  INTEGER NOT NULL,
		base  INTEGER NOT NULL,
		PRIMARY KEY (gid, pos)
	)`,
	`CREATE TABLE IF NOT EXISTS type_members (
		type_id INTEGER NOT NULL,
		pos     INTEGER NOT NULL,
		name    TEXT NOT NULL,
		value   INTEGER NOT NULL,
		PRIMARY KEY (type_id, pos)
	)`,
	`CREATE TABLE IF NOT EXISTS type_fields (
		type_id    INTEGER NOT NULL,
		pos        INTEGER NOT NULL,
		name       TEXT NOT NULL,
		field_type INTEGER NOT NULL,
		offset     INTEGER NOT NULL,
		shape      TEXT,
		PRIMARY KEY (type_id, pos)
	)`,
	`CREATE TABLE IF NOT EXISTS variables (
		gid     INTEGER NOT NULL,
		pos     INTEGER NOT NULL,
		id      INTEGER NOT NULL,
		name    TEXT NOT NULL,
		type_id INTEGER NOT NULL,
		dim_ids TEXT,
		layout  TEXT NOT NULL,
		no_fill INTEGER NOT NULL,
		fill    BLOB,
		PRIMARY KEY (gid, pos)
	)`,
	`CREATE TABLE IF NOT EXISTS attributes (
		gid     INTEGER NOT NULL,
		var_pos INTEGER NOT NULL,
		pos     INTEGER NOT NULL,
		name    TEXT NOT NULL,
		type_id INTEGER NOT NULL,
		count   INTEGER NOT NULL,
		bytes   BLOB,
		strings TEXT,
		dirty   INTEGER NOT NULL,
		PRIMARY KEY (gid, var_pos, pos)
	)`,
}

// groupAttr marks attribute rows owned by the group itself rather than by
// one of its variables.
const groupAttr = -1

// Init creates the schema if it does not exist.
func (s *Store) Init(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return ncerr.Wrap(err, "creating schema")
		}
	}
	return nil
}

// Save replaces the stored description inside one transaction.
func (s *Store) Save(ctx context.Context, desc *backend.Description) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ncerr.Wrap(err, "beginning save transaction")
	}
	if err := save(ctx, tx, desc); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return ncerr.Wrap(err, "committing save transaction")
	}
	s.log.Debug("description saved")
	return nil
}

func save(ctx context.Context, tx *sql.Tx, desc *backend.Description) error {
	for _, table := range []string{
		"attributes", "variables", "type_fields", "type_members",
		"types", "dimensions", "groups",
	} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return ncerr.Wrap(err, "clearing table "+table)
		}
	}
	return saveGroup(ctx, tx, &desc.Root, sql.NullInt64{})
}

func saveGroup(ctx context.Context, tx *sql.Tx, gd *backend.GroupDesc, parent sql.NullInt64) error {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO groups (gid, parent, name) VALUES (?, ?, ?)",
		gd.ID, parent, gd.Name); err != nil {
		return ncerr.Wrap(err, "inserting group "+gd.Name)
	}
	for pos, dd := range gd.Dimensions {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO dimensions (gid, pos, id, name, len, unlimited) VALUES (?, ?, ?, ?, ?, ?)",
			gd.ID, pos, dd.ID, dd.Name, dd.Len, dd.Unlimited); err != nil {
			return ncerr.Wrap(err, "inserting dimension "+dd.Name)
		}
	}
	for pos, td := range gd.Types {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO types (gid, pos, id, name, class, size, base) VALUES (?, ?, ?, ?, ?, ?, ?)",
			gd.ID, pos, td.ID, td.Name, td.Class, td.Size, td.Base); err != nil {
			return ncerr.Wrap(err, "inserting type "+td.Name)
		}
		for mpos, md := range td.Members {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO type_members (type_id, pos, name, value) VALUES (?, ?, ?, ?)",
				td.ID, mpos, md.Name, md.Value); err != nil {
				return ncerr.Wrap(err, "inserting member "+md.Name)
			}
		}
		for fpos, fd := range td.Fields {
			shape, err := json.Marshal(fd.Shape)
			if err != nil {
				return ncerr.Wrap(err, "encoding field shape")
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO type_fields (type_id, pos, name, field_type, offset, shape) VALUES (?, ?, ?, ?, ?, ?)",
				td.ID, fpos, fd.Name, fd.TypeID, fd.Offset, string(shape)); err != nil {
				return ncerr.Wrap(err, "inserting field "+fd.Name)
			}
		}
	}
	for pos, vd := range gd.Variables {
		dims, err := json.Marshal(vd.DimIDs)
		if err != nil {
			return ncerr.Wrap(err, "encoding dimension ids")
		}
		layout, err := json.Marshal(vd.Layout)
		if err != nil {
			return ncerr.Wrap(err, "encoding layout")
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO variables (gid, pos, id, name, type_id, dim_ids, layout, no_fill, fill) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			gd.ID, pos, vd.ID, vd.Name, vd.TypeID, string(dims), string(layout), vd.NoFill, vd.FillValue); err != nil {
			return ncerr.Wrap(err, "inserting variable "+vd.Name)
		}
		if err := saveAttrs(ctx, tx, gd.ID, pos, vd.Attributes); err != nil {
			return err
		}
	}
	if err := saveAttrs(ctx, tx, gd.ID, groupAttr, gd.Attributes); err != nil {
		return err
	}
	for i := range gd.Groups {
		child := sql.NullInt64{Int64: int64(gd.ID), Valid: true}
		if err := saveGroup(ctx, tx, &gd.Groups[i], child); err != nil {
			return err
		}
	}
	return nil
}

func saveAttrs(ctx context.Context, tx *sql.Tx, gid, varPos int, atts []backend.AttrDesc) error {
	for pos, ad := range atts {
		strings, err := json.Marshal(ad.Strings)
		if err != nil {
			return ncerr.Wrap(err, "encoding attribute strings")
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO attributes (gid, var_pos, pos, name, type_id, count, bytes, strings, dirty) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			gid, varPos, pos, ad.Name, ad.TypeID, ad.Count, ad.Bytes, string(strings), ad.Dirty); err != nil {
			return ncerr.Wrap(err, "inserting attribute "+ad.Name)
		}
	}
	return nil
}

// Load reads the stored description back, preserving declaration order.
func (s *Store) Load(ctx context.Context) (*backend.Description, error) {
	groups, order, children, err := s.loadGroups(ctx)
	if err != nil {
		return nil, err
	}
	if len(order) == 0 {
		return nil, ncerr.New(ncerr.BackendFailure, "no description stored")
	}
	for _, gid := range order {
		gd := groups[gid]
		if err := s.loadDimensions(ctx, gid, gd); err != nil {
			return nil, err
		}
		if err := s.loadTypes(ctx, gid, gd); err != nil {
			return nil, err
		}
		if err := s.loadVariables(ctx, gid, gd); err != nil {
			return nil, err
		}
		gd.Attributes, err = s.loadAttrs(ctx, gid, groupAttr)
		if err != nil {
			return nil, err
		}
	}

	// Gids are assigned in creation order with parents before children,
	// so assembling the tree bottom-up from the per-parent child lists
	// (each already in ascending gid order) preserves sibling order.
	var build func(gid int) backend.GroupDesc
	build = func(gid int) backend.GroupDesc {
		gd := *groups[gid]
		for _, cgid := range children[gid] {
			gd.Groups = append(gd.Groups, build(cgid))
		}
		return gd
	}

	s.log.Debug("description loaded", zap.Int("groups", len(order)))
	return &backend.Description{Root: build(order[0])}, nil
}

func (s *Store) loadGroups(ctx context.Context) (map[int]*backend.GroupDesc, []int, map[int][]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT gid, parent, name FROM groups ORDER BY gid")
	if err != nil {
		return nil, nil, nil, ncerr.Wrap(err, "querying groups")
	}
	defer rows.Close()

	groups := make(map[int]*backend.GroupDesc)
	children := make(map[int][]int)
	var order []int
	for rows.Next() {
		var (
			gid    int
			parent sql.NullInt64
			name   string
		)
		if err := rows.Scan(&gid, &parent, &name); err != nil {
			return nil, nil, nil, ncerr.Wrap(err, "scanning group row")
		}
		groups[gid] = &backend.GroupDesc{Name: name, ID: gid}
		order = append(order, gid)
		if parent.Valid {
			pgid := int(parent.Int64)
			if _, ok := groups[pgid]; !ok {
				return nil, nil, nil, ncerr.Newf(ncerr.BackendFailure,
					"group %d has unknown parent %d", gid, pgid)
			}
			children[pgid] = append(children[pgid], gid)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, nil, ncerr.Wrap(err, "reading group rows")
	}
	return groups, order, children, nil
}

func (s *Store) loadDimensions(ctx context.Context, gid int, gd *backend.GroupDesc) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, len, unlimited FROM dimensions WHERE gid = ? ORDER BY pos", gid)
	if err != nil {
		return ncerr.Wrap(err, "querying dimensions")
	}
	defer rows.Close()
	for rows.Next() {
		var dd backend.DimDesc
		if err := rows.Scan(&dd.ID, &dd.Name, &dd.Len, &dd.Unlimited); err != nil {
			return ncerr.Wrap(err, "scanning dimension row")
		}
		gd.Dimensions = append(gd.Dimensions, dd)
	}
	return rows.Err()
}

func (s *Store) loadTypes(ctx context.Context, gid int, gd *backend.GroupDesc) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, class, size, base FROM types WHERE gid = ? ORDER BY pos", gid)
	if err != nil {
		return ncerr.Wrap(err, "querying types")
	}
	defer rows.Close()
	for rows.Next() {
		var td backend.TypeDesc
		if err := rows.Scan(&td.ID, &td.Name, &td.Class, &td.Size, &td.Base); err != nil {
			return ncerr.Wrap(err, "scanning type row")
		}
		gd.Types = append(gd.Types, td)
	}
	if err := rows.Err(); err != nil {
		return ncerr.Wrap(err, "reading type rows")
	}
	for i := range gd.Types {
		td := &gd.Types[i]
		if err := s.loadMembers(ctx, td); err != nil {
			return err
		}
		if err := s.loadFields(ctx, td); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadMembers(ctx context.Context, td *backend.TypeDesc) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, value FROM type_members WHERE type_id = ? ORDER BY pos", td.ID)
	if err != nil {
		return ncerr.Wrap(err, "querying enum members")
	}
	defer rows.Close()
	for rows.Next() {
		var md backend.MemberDesc
		if err := rows.Scan(&md.Name, &md.Value); err != nil {
			return ncerr.Wrap(err, "scanning member row")
		}
		td.Members = append(td.Members, md)
	}
	return rows.Err()
}

func (s *Store) loadFields(ctx context.Context, td *backend.TypeDesc) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, field_type, offset, shape FROM type_fields WHERE type_id = ? ORDER BY pos", td.ID)
	if err != nil {
		return ncerr.Wrap(err, "querying compound fields")
	}
	defer rows.Close()
	for rows.Next() {
		var (
			fd    backend.FieldDesc
			shape string
		)
		if err := rows.Scan(&fd.Name, &fd.TypeID, &fd.Offset, &shape); err != nil {
			return ncerr.Wrap(err, "scanning field row")
		}
		if err := json.Unmarshal([]byte(shape), &fd.Shape); err != nil {
			return ncerr.Wrap(err, "decoding field shape")
		}
		td.Fields = append(td.Fields, fd)
	}
	return rows.Err()
}

func (s *Store) loadVariables(ctx context.Context, gid int, gd *backend.GroupDesc) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT pos, id, name, type_id, dim_ids, layout, no_fill, fill FROM variables WHERE gid = ? ORDER BY pos", gid)
	if err != nil {
		return ncerr.Wrap(err, "querying variables")
	}
	defer rows.Close()

	var positions []int
	for rows.Next() {
		var (
			pos          int
			vd           backend.VarDesc
			dims, layout string
		)
		if err := rows.Scan(&pos, &vd.ID, &vd.Name, &vd.TypeID, &dims, &layout, &vd.NoFill, &vd.FillValue); err != nil {
			return ncerr.Wrap(err, "scanning variable row")
		}
		if err := json.Unmarshal([]byte(dims), &vd.DimIDs); err != nil {
			return ncerr.Wrap(err, "decoding dimension ids")
		}
		if err := json.Unmarshal([]byte(layout), &vd.Layout); err != nil {
			return ncerr.Wrap(err, "decoding layout")
		}
		gd.Variables = append(gd.Variables, vd)
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return ncerr.Wrap(err, "reading variable rows")
	}
	for i := range gd.Variables {
		atts, err := s.loadAttrs(ctx, gid, positions[i])
		if err != nil {
			return err
		}
		gd.Variables[i].Attributes = atts
	}
	return nil
}

func (s *Store) loadAttrs(ctx context.Context, gid, varPos int) ([]backend.AttrDesc, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, type_id, count, bytes, strings, dirty FROM attributes WHERE gid = ? AND var_pos = ? ORDER BY pos", gid, varPos)
	if err != nil {
		return nil, ncerr.Wrap(err, "querying attributes")
	}
	defer rows.Close()

	var atts []backend.AttrDesc
	for rows.Next() {
		var (
			ad      backend.AttrDesc
			strings string
		)
		if err := rows.Scan(&ad.Name, &ad.TypeID, &ad.Count, &ad.Bytes, &strings, &ad.Dirty); err != nil {
			return nil, ncerr.Wrap(err, "scanning attribute row")
		}
		if err := json.Unmarshal([]byte(strings), &ad.Strings); err != nil {
			return nil, ncerr.Wrap(err, "decoding attribute strings")
		}
		atts = append(atts, ad)
	}
	return atts, rows.Err()
}
