package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pkgtrack/internal/lifecycle"
)

func newEventCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Record and inspect package state transitions",
	}
	cmd.AddCommand(newEventRecordCmd(a), newEventShowCmd(a))
	return cmd
}

func newEventRecordCmd(a *app) *cobra.Command {
	var (
		sel     selector
		state   string
		comment string
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Transition a package to a new state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if state == "" {
				return usagef("--state is required")
			}
			return a.withManager(func(m *lifecycle.Manager) error {
				pkg, err := sel.resolve(m)
				if err != nil {
					return err
				}
				e, err := m.Events().Record(pkg.EventsID, state, comment, a.actor())
				if err != nil {
					return err
				}
				if a.jsonOut {
					return a.printJSON(e)
				}
				fmt.Fprintf(a.out, "%s is now %s\n", pkg, e.State)
				return nil
			})
		},
	}
	sel.register(cmd, true)
	cmd.Flags().StringVar(&state, "state", "", "new state")
	cmd.Flags().StringVar(&comment, "comment", "", "comment for the transition")
	return cmd
}

func newEventShowCmd(a *app) *cobra.Command {
	var sel selector
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the state history of a package",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *lifecycle.Manager) error {
				pkg, err := sel.resolve(m)
				if err != nil {
					return err
				}
				history, err := m.Events().History(pkg.EventsID)
				if err != nil {
					return err
				}
				if a.jsonOut {
					return a.printJSON(history)
				}
				w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "SEQ\tSTATE\tBY\tAT\tCURRENT\tCOMMENT")
				for _, e := range history {
					current := ""
					if e.Current() {
						current = "*"
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
						e.Seq, e.State, e.CreatedBy, e.CreatedAt.Format("2006-01-02 15:04:05"), current, e.Comment)
				}
				return w.Flush()
			})
		},
	}
	sel.register(cmd, true)
	return cmd
}
