package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/onlinetravel/internal/models"
)

const activeUsage = "use the trip in progress instead of naming a listed trip"

func (r *runtime) destCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dest",
		Short: "List and edit the destinations of a trip",
	}
	cmd.PersistentFlags().BoolVar(&r.active, "active", false, activeUsage)

	var (
		place              models.Place
		day, at, transport string
	)
	add := &cobra.Command{
		Use:   "add [trip]",
		Short: "Add a destination",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, tracked, _, err := r.target(cmd, args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			dest, err := r.app.AddDestination(ctx, place, tracked)
			if err != nil {
				return err
			}
			if day != "" {
				if err := r.app.SetDestinationDay(ctx, dest, day, tracked); err != nil {
					return err
				}
			}
			if at != "" {
				if err := r.app.SetDestinationTime(ctx, dest, at, tracked); err != nil {
					return err
				}
			}
			if transport != "" {
				if err := r.app.SetDestinationTransportation(ctx, dest, transport, tracked); err != nil {
					return err
				}
			}
			return r.print(cmd.OutOrStdout(), newDestView(dest), func(w io.Writer) {
				fmt.Fprintf(w, "Added destination %s (%s)\n", dest.Name, dest.ID)
			})
		},
	}
	add.Flags().StringVar(&place.Name, "name", "", "place name")
	add.Flags().StringVar(&place.Address, "address", "", "street address")
	add.Flags().Float64Var(&place.Latitude, "lat", 0, "latitude")
	add.Flags().Float64Var(&place.Longitude, "lng", 0, "longitude")
	add.Flags().StringVar(&place.PlaceID, "place-id", "", "place provider id")
	add.Flags().StringVar(&day, "day", "", "day of the trip")
	add.Flags().StringVar(&at, "time", "", "arrival time, HH:MM")
	add.Flags().StringVar(&transport, "by", "", "transportation: "+strings.Join(transportations(), ", "))
	_ = add.MarkFlagRequired("name")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list [trip]",
			Short: "List destinations in schedule order",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				trip, tracked, _, err := r.target(cmd, args)
				if err != nil {
					return err
				}
				views := []destView{}
				for _, d := range r.destinations(trip, tracked) {
					views = append(views, newDestView(d))
				}
				return r.print(cmd.OutOrStdout(), views, func(w io.Writer) { writeDestinations(w, views) })
			},
		},
		&cobra.Command{
			Use:   "show [trip] <destination>",
			Short: "Show a destination with its notes and expenses",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, dest, _, _, err := r.targetDestination(cmd, args)
				if err != nil {
					return err
				}
				view := newDestView(dest)
				return r.print(cmd.OutOrStdout(), view, func(w io.Writer) { writeDestination(w, view) })
			},
		},
		add,
		&cobra.Command{
			Use:   "delete [trip] <destination>",
			Short: "Delete a destination",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, dest, tracked, _, err := r.targetDestination(cmd, args)
				if err != nil {
					return err
				}
				ok, err := r.app.DeleteDestination(cmd.Context(), dest, tracked)
				if err != nil || !ok {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted destination %s\n", dest.Name)
				return nil
			},
		},
	)
	return cmd
}

func transportations() []string {
	out := make([]string, len(models.Transportations))
	for i, t := range models.Transportations {
		out[i] = string(t)
	}
	return out
}

func (r *runtime) noteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Add and remove destination notes",
	}
	cmd.PersistentFlags().BoolVar(&r.active, "active", false, activeUsage)

	var image string
	add := &cobra.Command{
		Use:   "add [trip] <destination> <text>",
		Short: "Add a note, optionally with an image",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, dest, tracked, rest, err := r.targetDestination(cmd, args)
			if err != nil {
				return err
			}
			if len(rest) == 0 {
				return fmt.Errorf("note text is required")
			}
			if err := r.app.OpenNotes(dest, tracked); err != nil {
				return err
			}
			ctx := cmd.Context()
			note, err := r.app.AddNote(ctx, strings.Join(rest, " "))
			if err != nil {
				return err
			}
			if image != "" {
				if err := r.app.AttachImage(ctx, note, image); err != nil {
					return err
				}
			}
			return r.print(cmd.OutOrStdout(), newNoteView(note), func(w io.Writer) {
				fmt.Fprintf(w, "Added note %s\n", note.ID)
			})
		},
	}
	add.Flags().StringVar(&image, "image", "", "local image to upload with the note")

	cmd.AddCommand(
		add,
		&cobra.Command{
			Use:   "remove [trip] <destination> <note>",
			Short: "Remove a note",
			Args:  cobra.RangeArgs(2, 3),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, dest, tracked, rest, err := r.targetDestination(cmd, args)
				if err != nil {
					return err
				}
				if len(rest) != 1 {
					return fmt.Errorf("a note is required")
				}
				note, err := findNote(rest[0], dest)
				if err != nil {
					return err
				}
				if err := r.app.OpenNotes(dest, tracked); err != nil {
					return err
				}
				ok, err := r.app.RemoveNote(cmd.Context(), note)
				if err != nil || !ok {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Removed note")
				return nil
			},
		},
	)
	return cmd
}

func (r *runtime) spentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spent",
		Short: "Record and remove destination expenses",
	}
	cmd.PersistentFlags().BoolVar(&r.active, "active", false, activeUsage)

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add [trip] <destination> <what> <amount>",
			Short: "Record an expense",
			Args:  cobra.RangeArgs(3, 4),
			RunE: func(cmd *cobra.Command, args []string) error {
				trip, dest, tracked, rest, err := r.targetDestination(cmd, args)
				if err != nil {
					return err
				}
				if len(rest) != 2 {
					return fmt.Errorf("what and amount are required")
				}
				if err := r.app.OpenSpents(dest, tracked); err != nil {
					return err
				}
				ctx := cmd.Context()
				spent, err := r.app.AddSpent(ctx, rest[0])
				if err != nil {
					return err
				}
				if err := r.app.SetSpentAmount(ctx, spent, rest[1]); err != nil {
					return err
				}
				return r.print(cmd.OutOrStdout(), spentView{ID: spent.ID, Content: spent.Content, Spent: spent.Spent}, func(w io.Writer) {
					fmt.Fprintf(w, "Recorded %s\t%d\ttrip budget %d\n", spent.Content, spent.Spent, trip.Budget)
				})
			},
		},
		&cobra.Command{
			Use:   "remove [trip] <destination> <spent>",
			Short: "Remove an expense",
			Args:  cobra.RangeArgs(2, 3),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, dest, tracked, rest, err := r.targetDestination(cmd, args)
				if err != nil {
					return err
				}
				if len(rest) != 1 {
					return fmt.Errorf("an expense is required")
				}
				spent, err := findSpent(rest[0], dest)
				if err != nil {
					return err
				}
				if err := r.app.OpenSpents(dest, tracked); err != nil {
					return err
				}
				ok, err := r.app.RemoveSpent(cmd.Context(), spent)
				if err != nil || !ok {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", spent.Content)
				return nil
			},
		},
	)
	return cmd
}
