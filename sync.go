package aiodb

import (
	"context"
	"fmt"
)

// conn is what the synchronizer needs from a pool or a single connection.
type conn interface {
	Querier
	Execer
}

// syncPlan is the outcome of diffing a reflected schema against the live
// table.
type syncPlan struct {
	create bool          // table absent: create it from the full schema
	add    []SchemaField // reflected fields missing from the table
	drop   []string      // table columns missing from the schema
	kept   []Column      // columns present in both (left untouched)
}

func diffSchema(want Schema, have []Column, exists bool) syncPlan {
	if !exists {
		return syncPlan{create: true}
	}
	var p syncPlan
	for _, c := range have {
		if _, ok := want.Lookup(c.Name); ok {
			p.kept = append(p.kept, c)
			continue
		}
		p.drop = append(p.drop, c.Name)
	}
	present := make(map[string]struct{}, len(have))
	for _, c := range have {
		present[toLowerAscii(c.Name)] = struct{}{}
	}
	for _, f := range want {
		if _, ok := present[toLowerAscii(f.Name)]; !ok {
			p.add = append(p.add, f)
		}
	}
	return p
}

// synchronize brings the live table in line with s. It runs once, at open
// time. A table that does not exist is created and the baseline pragmas are
// applied; an existing table gains the columns it lacks and loses the ones
// the type no longer declares. Columns whose type changed under the same
// name are left alone.
func synchronize(ctx context.Context, c conn, table string, s Schema, cfg *config) error {
	log := cfg.logger

	have, exists, err := TableColumns(ctx, c, table)
	if err != nil {
		return fmt.Errorf("aiodb: read schema of %s: %w", table, err)
	}
	p := diffSchema(s, have, exists)

	if p.create {
		q, err := createTableSQL(table, s)
		if err != nil {
			return err
		}
		log.Infow("Creating table", "table", table, "columns", s.Names())
		log.Debugw("Executing statement", "sql", q)
		if _, err := c.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("aiodb: create table %s: %w", table, err)
		}
		return applyPragmas(ctx, c, cfg)
	}

	log.Debugw("Current table schema", "table", table, "columns", have)
	for _, k := range p.kept {
		f, _ := s.Lookup(k.Name)
		if k.Declared != "" && k.Declared != f.Type.SQLType() {
			log.Debugw("Column type differs from field type, leaving as is",
				"table", table, "column", k.Name, "declared", k.Declared, "field", f.Type.String())
		}
	}

	// Add before drop: SQLite refuses to drop a table's last column.
	for _, f := range p.add {
		q, err := addColumnSQL(table, f)
		if err != nil {
			return err
		}
		log.Infow("Adding column", "table", table, "column", f.Name, "type", f.Type.String())
		if _, err := c.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("aiodb: add column %s.%s: %w", table, f.Name, err)
		}
	}
	for _, name := range p.drop {
		log.Infow("Dropping column", "table", table, "column", name)
		if _, err := c.ExecContext(ctx, dropColumnSQL(table, name)); err != nil {
			return fmt.Errorf("aiodb: drop column %s.%s: %w", table, name, err)
		}
	}
	return nil
}

func applyPragmas(ctx context.Context, c Execer, cfg *config) error {
	if cfg.journal != "" {
		if _, err := c.ExecContext(ctx, "PRAGMA journal_mode = "+string(cfg.journal)); err != nil {
			return fmt.Errorf("aiodb: set journal mode: %w", err)
		}
	}
	if cfg.synchronous != "" {
		if _, err := c.ExecContext(ctx, "PRAGMA synchronous = "+cfg.synchronous); err != nil {
			return fmt.Errorf("aiodb: set synchronous: %w", err)
		}
	}
	cfg.logger.Debugw("Applied pragmas", "journal_mode", cfg.journal, "synchronous", cfg.synchronous)
	return nil
}
