// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LLNL/boxfish/aggregate"
	"github.com/LLNL/boxfish/clause"
	"github.com/LLNL/boxfish/internal/texttab"
	"github.com/LLNL/boxfish/query"
	"github.com/LLNL/boxfish/run"
	"github.com/LLNL/boxfish/subdomain"
	"github.com/LLNL/boxfish/table"
)

func newSchemaCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "List tables and the projections joining their subdomains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := e.load(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			tt := new(texttab.Table)
			tt.SetAlign(3, texttab.Right)
			tt.Header("table", "subdomain", "key", "rows")
			for _, t := range r.Tables() {
				tt.Row(t.Name(), t.Type().Key(), t.Key(), strconv.Itoa(t.Len()))
			}
			if err := tt.Format(out); err != nil {
				return err
			}
			fmt.Fprintln(out)

			et := new(texttab.Table)
			et.Header("from", "to", "projection")
			for _, edge := range r.Edges() {
				et.Row(edge.A.Key(), edge.B.Key(), edge.Projection.String())
			}
			return et.Format(out)
		},
	}
}

func newFilterCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "filter TABLE CLAUSE",
		Short: "Print the rows of a table that satisfy a clause",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := e.load(cmd.Context())
			if err != nil {
				return err
			}
			t, err := lookupTable(r, args[0])
			if err != nil {
				return err
			}
			c, err := clause.Parse(args[1])
			if err != nil {
				return err
			}
			rows, err := query.New(r, e.log).Evaluate(t, t.Identifiers(), c)
			if err != nil {
				return err
			}
			return texttab.Rows(t, rows).Format(cmd.OutOrStdout())
		},
	}
}

func newGroupByCommand(e *env) *cobra.Command {
	var by, values []string
	var aggName, where string
	cmd := &cobra.Command{
		Use:   "groupby TABLE",
		Short: "Group the rows of a table and aggregate their values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agg, err := aggregate.Parse(aggName)
			if err != nil {
				return err
			}
			c, err := parseWhere(where)
			if err != nil {
				return err
			}
			r, err := e.load(cmd.Context())
			if err != nil {
				return err
			}
			t, err := lookupTable(r, args[0])
			if err != nil {
				return err
			}
			groups, err := query.New(r, e.log).GroupBy(t, t.Identifiers(), c, by, values, agg)
			if err != nil {
				return err
			}
			return texttab.Groups(by, values, agg, groups).Format(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringSliceVar(&by, "by", nil, "group by these `attributes`")
	cmd.Flags().StringSliceVar(&values, "values", nil, "aggregate these `attributes`")
	cmd.Flags().StringVar(&aggName, "agg", "sum", "aggregate `function`")
	cmd.Flags().StringVar(&where, "where", "", "only rows satisfying `clause`")
	cmd.MarkFlagRequired("by")
	cmd.MarkFlagRequired("values")
	return cmd
}

func newDomainCommand(e *env) *cobra.Command {
	var aggName, where string
	cmd := &cobra.Command{
		Use:   "domain TABLE TYPE ATTR",
		Short: "Aggregate an attribute of a table onto the identifiers of another subdomain",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			agg, err := aggregate.Parse(aggName)
			if err != nil {
				return err
			}
			target, err := subdomain.ResolveKey(args[1])
			if err != nil {
				return err
			}
			c, err := parseWhere(where)
			if err != nil {
				return err
			}
			r, err := e.load(cmd.Context())
			if err != nil {
				return err
			}
			t, err := lookupTable(r, args[0])
			if err != nil {
				return err
			}
			d, err := query.New(r, e.log).AggregateDomain(t, t.Identifiers(), c, target, args[2], agg)
			if err != nil {
				return err
			}
			labels := make([]string, d.Subdomain.Len())
			for i, id := range d.Subdomain.IDs() {
				labels[i] = strconv.Itoa(id)
			}
			return texttab.Values("id", fmt.Sprintf("%s(%s)", agg, args[2]), labels, d.Values).Format(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&aggName, "agg", "sum", "aggregate `function`")
	cmd.Flags().StringVar(&where, "where", "", "only rows satisfying `clause`")
	return cmd
}

func newEvalCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "eval TYPE ATTR AGG ID...",
		Short: "Aggregate an attribute over identifiers of a subdomain",
		Long: `Eval aggregates ATTR over the rows matching each ID of subdomain TYPE.
An ID may be a comma-separated group of identifiers, which are
aggregated together.`,
		Args: cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := subdomain.ResolveKey(args[0])
			if err != nil {
				return err
			}
			attr := args[1]
			agg, err := aggregate.Parse(args[2])
			if err != nil {
				return err
			}
			groups := make([][]int, len(args[3:]))
			for i, arg := range args[3:] {
				if groups[i], err = parseIDs(strings.Split(arg, ",")); err != nil {
					return err
				}
			}
			r, err := e.load(cmd.Context())
			if err != nil {
				return err
			}
			vals, ok := r.Evaluate(subdomain.NewGrouped(typ, groups), attr, agg)
			if !ok {
				return errors.Wrapf(table.ErrUnknownAttribute, "cannot %s %q over %s", agg, attr, typ)
			}
			return texttab.Values("id", fmt.Sprintf("%s(%s)", agg, attr), args[3:], vals).Format(cmd.OutOrStdout())
		},
	}
}

func newProjectCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "project FROM TO ID...",
		Short: "Map identifiers of one subdomain to another",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := subdomain.ResolveKey(args[0])
			if err != nil {
				return err
			}
			to, err := subdomain.ResolveKey(args[1])
			if err != nil {
				return err
			}
			ids, err := parseIDs(args[2:])
			if err != nil {
				return err
			}
			r, err := e.load(cmd.Context())
			if err != nil {
				return err
			}
			s, ok := r.Project(subdomain.New(from, ids...), to)
			if !ok {
				return errors.Wrapf(run.ErrNoProjectionPath, "%s to %s", from, to)
			}
			fields := []string{to.Key()}
			for _, id := range s.IDs() {
				fields = append(fields, strconv.Itoa(id))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(fields, " "))
			return err
		},
	}
}

func newSaveCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Store the dataset's tables in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := e.load(cmd.Context())
			if err != nil {
				return err
			}
			db, err := e.openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			for _, t := range r.Tables() {
				if err := db.SaveTable(cmd.Context(), t); err != nil {
					return err
				}
				e.log.Info("saved table", zap.Stringer("table", t))
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved %d tables\n", len(r.Tables()))
			return err
		},
	}
}

func lookupTable(r *run.Run, name string) (*table.Table, error) {
	t, ok := r.TableByName(name)
	if !ok {
		var names []string
		for _, t := range r.Tables() {
			names = append(names, t.Name())
		}
		return nil, errors.WithHint(errors.Newf("no table %q", name),
			"tables are "+strings.Join(names, ", "))
	}
	return t, nil
}

func parseWhere(where string) (clause.Clause, error) {
	if where == "" {
		return nil, nil
	}
	return clause.Parse(where)
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, len(args))
	for i, arg := range args {
		id, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			return nil, errors.Wrapf(err, "identifier %q", arg)
		}
		ids[i] = id
	}
	return ids, nil
}
