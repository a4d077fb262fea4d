package catalog

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"

	sqlite3 "github.com/mattn/go-sqlite3"
	"modernc.org/sqlite"
)

// foldFunc is the SQL name of the Unicode-aware lower case function. SQLite's
// built-in lower() only folds ASCII.
const foldFunc = "casefold"

// mattnFolding is the database/sql name of the go-sqlite3 driver with foldFunc attached.
const mattnFolding = "sqlite3_casefold"

var registerFold sync.Once

// fold is the case folding applied to both stored text and queries.
func fold(s string) string {
	return strings.ToLower(s)
}

// registerFoldFunc makes foldFunc available on every connection of both drivers.
func registerFoldFunc() {
	registerFold.Do(func() {
		sqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1,
			func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				switch v := args[0].(type) {
				case nil:
					return nil, nil
				case string:
					return fold(v), nil
				case []byte:
					return fold(string(v)), nil
				default:
					return fold(fmt.Sprint(v)), nil
				}
			})

		sql.Register(mattnFolding, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc(foldFunc, fold, true)
			},
		})
	})
}

// driverName maps a configured driver to the registered database/sql name.
func driverName(driver string) string {
	if driver == DriverMattn {
		return mattnFolding
	}
	return driver
}
