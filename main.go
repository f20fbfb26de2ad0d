// sql2xlsx exports the result of a SQL query to a styled .xlsx workbook.
//
// Usage:
//
//	# Export to report.sql_result.xlsx
//	sql2xlsx report.sql
//
//	# Export to a chosen file with debug logging
//	sql2xlsx -vv report.sql report.xlsx
//
//	# Serve GET /export/<name> for queries in QUERY_DIR
//	sql2xlsx serve
package main

import (
	"context"
	"os"

	"github.com/locvowork/sql2xlsx/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
