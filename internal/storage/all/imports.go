// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each backend, which register their
// factories and DDL dialects with the storage package:
//
//   - "csv"      (orderetl/internal/storage/csvfile)
//   - "sqlite"   (orderetl/internal/storage/sqlite)
//   - "postgres" (orderetl/internal/storage/postgres)
//   - "mysql"    (orderetl/internal/storage/mysql)
//   - "mssql"    (orderetl/internal/storage/mssql)
//
// Typical usage in a main package:
//
//	import _ "orderetl/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: "output/orders.db"})
//
// A binary that needs only some backends can import those packages directly
// instead.
package all

import (
	_ "orderetl/internal/storage/csvfile"
	_ "orderetl/internal/storage/mssql"
	_ "orderetl/internal/storage/mysql"
	_ "orderetl/internal/storage/postgres"
	_ "orderetl/internal/storage/sqlite"
)
