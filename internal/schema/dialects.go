package schema

import (
	"fmt"
	"strings"
)

// SQLite: double-quoted identifiers, inline INTEGER PRIMARY KEY AUTOINCREMENT,
// partial indexes.
var sqliteDialect = dialect{
	name:  "sqlite",
	quote: quoteDouble,
	types: map[Type]string{
		Serial: "INTEGER",
		Int:    "INTEGER",
		Real:   "REAL",
		Text:   "TEXT",
		Key:    "TEXT",
		Hash:   "INTEGER",
	},
	serialPK: true,
	createTable: func(qname, body string) string {
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", qname, body)
	},
	dropTable: func(qname string) string {
		return fmt.Sprintf("DROP TABLE IF EXISTS %s;", qname)
	},
	createIndex: func(ix Index, qname, qtable, cols string) string {
		stmt := fmt.Sprintf("%s IF NOT EXISTS %s ON %s (%s)", indexPrefix(ix), qname, qtable, cols)
		if ix.NotNull {
			stmt += notNullFilter(quoteDouble, ix.Columns)
		}
		return stmt + ";"
	},
}

// Postgres shares SQLite's quoting and statement shapes but uses identity
// columns and wider numeric types.
var postgresDialect = dialect{
	name:  "postgres",
	quote: quoteDouble,
	types: map[Type]string{
		Serial: "BIGINT GENERATED BY DEFAULT AS IDENTITY",
		Int:    "BIGINT",
		Real:   "DOUBLE PRECISION",
		Text:   "TEXT",
		Key:    "TEXT",
		Hash:   "BIGINT",
	},
	createTable: func(qname, body string) string {
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", qname, body)
	},
	dropTable: func(qname string) string {
		return fmt.Sprintf("DROP TABLE IF EXISTS %s;", qname)
	},
	createIndex: func(ix Index, qname, qtable, cols string) string {
		stmt := fmt.Sprintf("%s IF NOT EXISTS %s ON %s (%s)", indexPrefix(ix), qname, qtable, cols)
		if ix.NotNull {
			stmt += notNullFilter(quoteDouble, ix.Columns)
		}
		return stmt + ";"
	},
}

// SQL Server: bracket quoting, OBJECT_ID guards in place of IF [NOT] EXISTS,
// filtered indexes. Indexed text must fit the 900-byte key limit and compares
// by code point, as the default collation folds case and accents.
var mssqlDialect = dialect{
	name:  "mssql",
	quote: quoteBracket,
	types: map[Type]string{
		Serial: "BIGINT IDENTITY(1,1)",
		Int:    "BIGINT",
		Real:   "FLOAT",
		Text:   "NVARCHAR(MAX)",
		Key:    "NVARCHAR(450) COLLATE Latin1_General_100_BIN2",
		Hash:   "BIGINT",
	},
	createTable: func(qname, body string) string {
		body = strings.ReplaceAll(body, "\n  ", "\n    ")
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n    %s\n  );\nEND;",
			qname, qname, body)
	},
	dropTable: func(qname string) string {
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NOT NULL DROP TABLE %s;", qname, qname)
	},
	createIndex: func(ix Index, qname, qtable, cols string) string {
		stmt := fmt.Sprintf("%s %s ON %s (%s)", indexPrefix(ix), qname, qtable, cols)
		if ix.NotNull {
			stmt += notNullFilter(quoteBracket, ix.Columns)
		}
		return fmt.Sprintf("IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = N'%s' AND object_id = OBJECT_ID(N'%s'))\n  %s;",
			strings.ReplaceAll(ix.Name, "'", "''"), qtable, stmt)
	},
}

// MySQL: backtick quoting, AUTO_INCREMENT. There are no partial indexes, but
// a MySQL unique index already admits any number of NULLs, so NotNull is
// dropped. Tables are always freshly created, so indexes need no guard. Keys
// use a binary collation so "cafe" and "café" stay distinct.
var mysqlDialect = dialect{
	name:  "mysql",
	quote: quoteBacktick,
	types: map[Type]string{
		Serial: "BIGINT AUTO_INCREMENT",
		Int:    "BIGINT",
		Real:   "DOUBLE",
		Text:   "TEXT",
		Key:    "VARCHAR(512) COLLATE utf8mb4_bin",
		Hash:   "BIGINT",
	},
	createTable: func(qname, body string) string {
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;", qname, body)
	},
	dropTable: func(qname string) string {
		return fmt.Sprintf("DROP TABLE IF EXISTS %s;", qname)
	},
	createIndex: func(ix Index, qname, qtable, cols string) string {
		return fmt.Sprintf("%s %s ON %s (%s);", indexPrefix(ix), qname, qtable, cols)
	},
}

func quoteDouble(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// quoteBracket quotes for SQL Server, escaping closing brackets:
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func quoteBracket(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

func quoteBacktick(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}
