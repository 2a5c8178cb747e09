package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/onlinetravel/internal/app"
	"github.com/example/onlinetravel/internal/models"
	"github.com/example/onlinetravel/internal/platform"
)

func (r *runtime) shareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Share trips, destinations and notes by url or QR code",
	}
	cmd.PersistentFlags().StringSliceVar(&r.mailTo, "mail-to", nil, "also email the share url to these addresses")

	var save string
	qr := &cobra.Command{
		Use:   "qr <trip> [destination [note]]",
		Short: "Upload a QR code of the share url",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			trip, dest, note, err := r.shared(cmd, args)
			if err != nil {
				return err
			}
			code, err := r.app.ShareQR(cmd.Context(), trip, dest, note)
			if err != nil {
				return err
			}
			if save != "" {
				if err := writeQR(save, code.URL, r.cfg.QRScale); err != nil {
					return err
				}
			}
			if err := r.mail(cmd, code); err != nil {
				return err
			}
			return r.print(cmd.OutOrStdout(), code, func(w io.Writer) {
				fmt.Fprintf(w, "URL:\t%s\nImage:\t%s\n", code.URL, code.Image)
			})
		},
	}
	qr.Flags().StringVar(&save, "save", "", "also write the QR code to this PNG file")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "url <trip> [destination [note]]",
			Short: "Print the share url",
			Args:  cobra.RangeArgs(1, 3),
			RunE: func(cmd *cobra.Command, args []string) error {
				trip, dest, note, err := r.shared(cmd, args)
				if err != nil {
					return err
				}
				u, err := r.app.ShareURL(trip, dest, note)
				if err != nil {
					return err
				}
				if err := r.mail(cmd, app.ShareCode{URL: u}); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), u)
				return nil
			},
		},
		qr,
		&cobra.Command{
			Use:   "resolve <url>",
			Short: "Show what a share url points at",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := r.signIn(cmd); err != nil {
					return err
				}
				entity, err := r.app.Session().Share().ResolveURL(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return r.printEntity(cmd.OutOrStdout(), entity)
			},
		},
	)
	return cmd
}

// shared resolves a trip and optionally one of its destinations and notes.
func (r *runtime) shared(cmd *cobra.Command, args []string) (*models.Trip, *models.Destination, *models.Note, error) {
	trip, _, rest, err := r.target(cmd, args)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(rest) == 0 {
		return trip, nil, nil, nil
	}
	dest, err := findDestination(rest[0], r.app.State().Destinations())
	if err != nil {
		return nil, nil, nil, err
	}
	if len(rest) == 1 {
		return trip, dest, nil, nil
	}
	note, err := findNote(rest[1], dest)
	if err != nil {
		return nil, nil, nil, err
	}
	return trip, dest, note, nil
}

func (r *runtime) mail(cmd *cobra.Command, code app.ShareCode) error {
	if len(r.mailTo) == 0 {
		return nil
	}
	if err := r.app.SendShare(cmd.Context(), code); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Sent to %d recipient(s)\n", len(r.mailTo))
	return nil
}

func writeQR(path, content string, scale int) error {
	bits, err := platform.QRMatrix(content)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := platform.NewPNGEncoder(scale).Encode(f, bits); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func (r *runtime) printEntity(w io.Writer, entity models.Entity) error {
	switch e := entity.(type) {
	case *models.Trip:
		e.CalculateBudget()
		view := newTripView(e, true)
		return r.print(w, view, func(w io.Writer) {
			fmt.Fprintf(w, "Trip %s\t%d days\tbudget %d\n", view.Name, view.Days, view.Budget)
			writeDestinations(w, view.Destinations)
		})
	case *models.Destination:
		view := newDestView(e)
		return r.print(w, view, func(w io.Writer) { writeDestination(w, view) })
	case *models.Note:
		view := newNoteView(e)
		return r.print(w, view, func(w io.Writer) {
			fmt.Fprintf(w, "Note:\t%s\n", view.Content)
			if view.Image != "" {
				fmt.Fprintf(w, "Image:\t%s\n", view.Image)
			}
		})
	default:
		return fmt.Errorf("unexpected shared %s", entity.Kind())
	}
}
