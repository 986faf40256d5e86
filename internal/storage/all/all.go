// Package all enables every built-in storage backend. Import it for side
// effects:
//
//	import _ "beautywiz/internal/storage/all"
//
// after which storage.New accepts "sqlite", "postgres", "mssql" and "mysql".
package all

import (
	_ "beautywiz/internal/storage/mssql"
	_ "beautywiz/internal/storage/mysql"
	_ "beautywiz/internal/storage/postgres"
	_ "beautywiz/internal/storage/sqlite"
)
