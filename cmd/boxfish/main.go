// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Boxfish queries performance data keyed by hardware, communication,
// and application subdomains.
//
// Usage:
//
//	boxfish [flags] command [args...]
//
// A dataset is described by a YAML manifest listing tables and the
// projections that relate their subdomains. The commands are:
//
//	schema                          list tables and schema graph edges
//	filter TABLE CLAUSE             print the rows of TABLE matching CLAUSE
//	groupby TABLE                   group and aggregate rows of TABLE
//	domain TABLE TYPE ATTR          aggregate ATTR of TABLE onto subdomain TYPE
//	eval TYPE ATTR AGG ID...        aggregate ATTR over identifiers of TYPE
//	project FROM TO ID...           map identifiers between subdomains
//	save                            store the dataset's tables in the database
//
// Clauses compare attributes and literals and combine the comparisons
// with AND, OR, and parentheses, for example
//
//	boxfish -m run.yaml filter comm 'bytes > 1024 AND temp < 60'
//
// Attributes that the table lacks are found in related tables and
// joined through projections.
//
// Settings may also come from a YAML config file (-config) or from
// BOXFISH_ environment variables, such as BOXFISH_MANIFEST and
// BOXFISH_DB_SOURCE.
package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	if err := newRootCommand(nil).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "boxfish: %v\n", err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
