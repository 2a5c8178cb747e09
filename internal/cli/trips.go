package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func (r *runtime) tripsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trips",
		Short: "List and edit your trips",
	}

	var days int
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a trip",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := r.signIn(cmd); err != nil {
				return err
			}
			trip, err := r.app.AddTripAsync(cmd.Context(), strings.Join(args, " ")).Wait(cmd.Context())
			if err != nil {
				return err
			}
			if days > 1 {
				if err := r.app.SetTripDays(cmd.Context(), trip, strconv.Itoa(days)); err != nil {
					return err
				}
			}
			return r.print(cmd.OutOrStdout(), newTripView(trip, false), func(w io.Writer) {
				fmt.Fprintf(w, "Added trip %s (%s)\n", trip.Name, trip.ID)
			})
		},
	}
	add.Flags().IntVar(&days, "days", 1, "length of the trip in days")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List your trips",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := r.signIn(cmd); err != nil {
					return err
				}
				views := []tripView{}
				for _, t := range r.app.State().Trips() {
					views = append(views, newTripView(t, false))
				}
				return r.print(cmd.OutOrStdout(), views, func(w io.Writer) { writeTrips(w, views) })
			},
		},
		add,
		&cobra.Command{
			Use:   "rename <trip> <name>",
			Short: "Rename a trip",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := r.signIn(cmd); err != nil {
					return err
				}
				trip, err := r.findTrip(args[0])
				if err != nil {
					return err
				}
				return r.app.RenameTrip(cmd.Context(), trip, strings.Join(args[1:], " "))
			},
		},
		&cobra.Command{
			Use:   "days <trip> <days>",
			Short: "Change how many days a trip lasts",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := r.signIn(cmd); err != nil {
					return err
				}
				trip, err := r.findTrip(args[0])
				if err != nil {
					return err
				}
				return r.app.SetTripDays(cmd.Context(), trip, args[1])
			},
		},
		&cobra.Command{
			Use:   "delete <trip>",
			Short: "Delete a trip with its destinations",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := r.signIn(cmd); err != nil {
					return err
				}
				trip, err := r.findTrip(args[0])
				if err != nil {
					return err
				}
				ok, err := r.app.DeleteTripAsync(cmd.Context(), trip).Wait(cmd.Context())
				if err != nil || !ok {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted trip %s\n", trip.Name)
				return nil
			},
		},
	)
	return cmd
}

func (r *runtime) tripCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trip",
		Short: "Travel a trip",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "start <trip>",
			Short: "Start travelling a trip",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := r.signIn(cmd); err != nil {
					return err
				}
				trip, err := r.findTrip(args[0])
				if err != nil {
					return err
				}
				if _, err := r.app.StartTripAsync(cmd.Context(), trip).Wait(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Started %s\n", trip.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "finish",
			Short: "Finish the trip in progress and keep what was travelled",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := r.signIn(cmd); err != nil {
					return err
				}
				finished, err := r.app.FinishTripAsync(cmd.Context()).Wait(cmd.Context())
				if err != nil || !finished.Confirmed {
					return err
				}
				trip := finished.Value
				return r.print(cmd.OutOrStdout(), newTripView(trip, true), func(w io.Writer) {
					fmt.Fprintf(w, "Finished %s\tbudget %d\n", trip.Name, trip.Budget)
				})
			},
		},
		&cobra.Command{
			Use:   "cancel",
			Short: "Cancel the trip in progress and keep the plan",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := r.signIn(cmd); err != nil {
					return err
				}
				ok, err := r.app.CancelTripAsync(cmd.Context()).Wait(cmd.Context())
				if err != nil || !ok {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Trip cancelled")
				return nil
			},
		},
		&cobra.Command{
			Use:   "active",
			Short: "Show the trip in progress",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := r.signIn(cmd); err != nil {
					return err
				}
				active := r.app.State().ActiveTrip()
				if active == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "No trip in progress")
					return nil
				}
				active.CalculateBudget()
				view := newTripView(active, true)
				return r.print(cmd.OutOrStdout(), view, func(w io.Writer) {
					fmt.Fprintf(w, "%s\t%d days\tbudget %d\n", view.Name, view.Days, view.Budget)
					writeDestinations(w, view.Destinations)
				})
			},
		},
	)
	return cmd
}
