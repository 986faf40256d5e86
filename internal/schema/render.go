package schema

import (
	"fmt"
	"strings"
)

// Dialect names a SQL dialect. Values match the storage kinds.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MSSQL    Dialect = "mssql"
	MySQL    Dialect = "mysql"
)

// Script is the DDL needed to reset a database to the model: Drop removes
// existing tables children-first, Create builds tables then indexes.
type Script struct {
	Drop   []string
	Create []string
}

// All returns Drop followed by Create.
func (s Script) All() []string {
	out := make([]string, 0, len(s.Drop)+len(s.Create))
	out = append(out, s.Drop...)
	return append(out, s.Create...)
}

// dialect describes how one SQL dialect renders the model.
type dialect struct {
	name  string
	quote func(string) string
	types map[Type]string

	// serialPK renders the Serial column with an inline PRIMARY KEY
	// instead of a trailing constraint.
	serialPK bool

	createTable func(qname, body string) string
	dropTable   func(qname string) string
	createIndex func(ix Index, qname, qtable, cols string) string
}

var dialects = map[Dialect]dialect{
	SQLite:   sqliteDialect,
	Postgres: postgresDialect,
	MSSQL:    mssqlDialect,
	MySQL:    mysqlDialect,
}

// Quoter returns d's identifier quoting function.
func Quoter(d Dialect) (func(string) string, error) {
	dl, ok := dialects[d]
	if !ok {
		return nil, fmt.Errorf("schema: unsupported dialect %q", d)
	}
	return dl.quote, nil
}

// Quote quotes a single identifier for d.
func Quote(d Dialect, ident string) (string, error) {
	q, err := Quoter(d)
	if err != nil {
		return "", err
	}
	return q(ident), nil
}

// Render returns the reset script for m in dialect d.
func Render(m Model, d Dialect) (Script, error) {
	dl, ok := dialects[d]
	if !ok {
		return Script{}, fmt.Errorf("schema: unsupported dialect %q", d)
	}

	var s Script
	for _, name := range m.DropOrder() {
		s.Drop = append(s.Drop, dl.dropTable(dl.quote(name)))
	}
	for _, t := range m.Tables {
		stmt, err := buildCreateTable(dl, t)
		if err != nil {
			return Script{}, err
		}
		s.Create = append(s.Create, stmt)
	}
	for _, ix := range m.Indexes {
		stmt, err := buildCreateIndex(dl, m, ix)
		if err != nil {
			return Script{}, err
		}
		s.Create = append(s.Create, stmt)
	}
	return s, nil
}

// buildCreateTable renders:
//
//	<create prefix> <table> (
//	  <col> TYPE [NOT NULL] [UNIQUE],
//	  ...,
//	  PRIMARY KEY (<pk-cols>),
//	  FOREIGN KEY (<col>) REFERENCES <parent> (<col>) ON DELETE CASCADE
//	)
func buildCreateTable(d dialect, t Table) (string, error) {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return "", fmt.Errorf("%s schema: table name must not be empty", d.name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s schema: table %s has no columns", d.name, name)
	}

	parts := make([]string, 0, len(t.Columns)+len(t.ForeignKeys)+1)
	pks := make([]string, 0, len(t.PrimaryKey)+1)

	for _, c := range t.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return "", fmt.Errorf("%s schema: column with empty name in table %s", d.name, name)
		}
		typ, ok := d.types[c.Type]
		if !ok {
			return "", fmt.Errorf("%s schema: column %s.%s has unsupported type %s", d.name, name, c.Name, c.Type)
		}

		var sb strings.Builder
		sb.WriteString(d.quote(c.Name))
		sb.WriteByte(' ')
		sb.WriteString(typ)

		if c.Type == Serial {
			if d.serialPK {
				sb.WriteString(" PRIMARY KEY AUTOINCREMENT")
			} else {
				sb.WriteString(" NOT NULL")
				pks = append(pks, d.quote(c.Name))
			}
		} else if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if c.Unique {
			sb.WriteString(" UNIQUE")
		}
		parts = append(parts, sb.String())
	}

	if len(t.PrimaryKey) > 0 {
		if len(pks) > 0 || (d.serialPK && t.Serial() != "") {
			return "", fmt.Errorf("%s schema: table %s has both a serial and a composite key", d.name, name)
		}
		for _, col := range t.PrimaryKey {
			if _, ok := t.Column(col); !ok {
				return "", fmt.Errorf("%s schema: primary key column %s.%s not defined", d.name, name, col)
			}
			pks = append(pks, d.quote(col))
		}
	}
	if len(pks) > 0 {
		parts = append(parts, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	for _, fk := range t.ForeignKeys {
		if _, ok := t.Column(fk.Column); !ok {
			return "", fmt.Errorf("%s schema: foreign key column %s.%s not defined", d.name, name, fk.Column)
		}
		parts = append(parts, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s) ON DELETE CASCADE",
			d.quote(fk.Column), d.quote(fk.RefTable), d.quote(fk.RefColumn)))
	}

	return d.createTable(d.quote(name), strings.Join(parts, ",\n  ")), nil
}

func buildCreateIndex(d dialect, m Model, ix Index) (string, error) {
	t, ok := m.Table(ix.Table)
	if !ok {
		return "", fmt.Errorf("%s schema: index %s references unknown table %s", d.name, ix.Name, ix.Table)
	}
	if len(ix.Columns) == 0 {
		return "", fmt.Errorf("%s schema: index %s has no columns", d.name, ix.Name)
	}
	cols := make([]string, len(ix.Columns))
	for i, c := range ix.Columns {
		if _, ok := t.Column(c); !ok {
			return "", fmt.Errorf("%s schema: index %s column %s.%s not defined", d.name, ix.Name, ix.Table, c)
		}
		cols[i] = d.quote(c)
	}
	return d.createIndex(ix, d.quote(ix.Name), d.quote(ix.Table), strings.Join(cols, ", ")), nil
}

// indexPrefix returns "CREATE INDEX" or "CREATE UNIQUE INDEX".
func indexPrefix(ix Index) string {
	if ix.Unique {
		return "CREATE UNIQUE INDEX"
	}
	return "CREATE INDEX"
}

// notNullFilter renders a WHERE clause restricting an index to rows whose
// indexed columns are all non-NULL.
func notNullFilter(quote func(string) string, cols []string) string {
	conds := make([]string, len(cols))
	for i, c := range cols {
		conds[i] = quote(c) + " IS NOT NULL"
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
