package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/ayusman/tubecontrol/internal/gesture"
	"github.com/ayusman/tubecontrol/internal/store"
	"github.com/spf13/cobra"
)

func newBindingsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bindings",
		Short: "Show and edit action to operation bindings",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List bindings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := c.seedBindings(st); err != nil {
				return err
			}
			bindings, err := st.Bindings().List()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ACTION\tOPERATION")
			fmt.Fprintln(w, "------\t---------")
			for _, b := range bindings {
				fmt.Fprintf(w, "%s\t%s\n", b.Action, b.Operation)
			}
			return w.Flush()
		},
	}

	set := &cobra.Command{
		Use:   "set ACTION OPERATION",
		Short: "Bind an action to an operation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := gesture.ParseAction(args[0])
			if err != nil {
				return err
			}
			op, err := gesture.ParseOperation(args[1])
			if err != nil {
				return err
			}

			st, err := c.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := c.seedBindings(st); err != nil {
				return err
			}
			if err := st.Bindings().Set(a, op); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", a, op)
			return nil
		},
	}

	unset := &cobra.Command{
		Use:   "unset ACTION",
		Short: "Remove the binding of an action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := gesture.ParseAction(args[0])
			if err != nil {
				return err
			}

			st, err := c.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := c.seedBindings(st); err != nil {
				return err
			}
			if err := st.Bindings().Delete(a); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("%s is not bound", a)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s unbound\n", a)
			return nil
		},
	}

	cmd.AddCommand(list, set, unset)
	return cmd
}

// seedBindings fills an empty table from config, as serve does.
func (c *cli) seedBindings(st *store.Store) error {
	seed, err := c.cfg.BindingsTable()
	if err != nil {
		return err
	}
	_, err = st.Bindings().Seed(seed)
	return err
}
