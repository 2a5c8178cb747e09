package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/example/onlinetravel/internal/models"
)

// ErrUsage is returned for a shell command with missing or malformed arguments.
var ErrUsage = errors.New("usage")

type command struct {
	usage string
	args  int // minimum number of arguments
	run   func(ctx context.Context, args []string) error
}

// Shell drives the screens from a line-oriented terminal. Item numbers refer
// to the list on the visible screen.
type Shell struct {
	app      *App
	in       *bufio.Reader
	out      io.Writer
	commands map[string]command
}

// NewShell creates a shell reading commands from in. Prompts of the app
// should read from the same reader, e.g. a LinePrompter on in.
func NewShell(app *App, in *bufio.Reader, out io.Writer) *Shell {
	s := &Shell{app: app, in: in, out: out}
	s.commands = s.commandTable()
	return s
}

// Run executes commands until end of input, "quit" or ctx is done. Command
// errors are printed and do not stop the shell.
func (s *Shell) Run(ctx context.Context) error {
	if s.app.nav.Current() == "" {
		if err := s.app.Start(ctx); err != nil {
			return err
		}
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s> ", s.app.nav.Current())
		line, err := s.in.ReadString('\n')
		if err != nil && line == "" {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		quit, err := s.Exec(ctx, line)
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// Exec runs one command line and reports whether the shell should stop.
func (s *Shell) Exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	name, args := fields[0], fields[1:]
	switch name {
	case "quit", "exit":
		return true, nil
	case "help":
		s.help()
		return false, nil
	}
	cmd, ok := s.commands[name]
	if !ok {
		return false, fmt.Errorf("unknown command %q, try help", name)
	}
	if len(args) < cmd.args {
		return false, fmt.Errorf("%w: %s %s", ErrUsage, name, cmd.usage)
	}
	s.app.logger.Debug("Shell command", zap.String("command", name))
	if err := cmd.run(ctx, args); err != nil {
		return false, err
	}
	return false, nil
}

func (s *Shell) help() {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(s.out, "  %s %s\n", name, s.commands[name].usage)
	}
	fmt.Fprintln(s.out, "  quit")
}

func (s *Shell) commandTable() map[string]command {
	a := s.app
	show := func(screen string) func(context.Context, []string) error {
		return func(context.Context, []string) error { return a.nav.Show(screen, false) }
	}
	return map[string]command{
		"login": {"<email> <password>", 2, func(ctx context.Context, args []string) error {
			return a.Login(ctx, args[0], args[1])
		}},
		"register": {"<email> <password>", 2, func(ctx context.Context, args []string) error {
			if err := a.Register(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(s.out, "Your account is successfully created.")
			return nil
		}},
		"signout": {"", 0, func(context.Context, []string) error {
			_, err := a.SignOut()
			return err
		}},
		"home":    {"", 0, show(ScreenHome)},
		"trips":   {"", 0, show(ScreenTrips)},
		"tracker": {"", 0, show(ScreenTracker)},
		"back": {"", 0, func(context.Context, []string) error {
			if !a.nav.Back() {
				fmt.Fprintln(s.out, "Nothing to go back to")
			}
			return nil
		}},
		"forward": {"", 0, func(context.Context, []string) error {
			if !a.nav.Forward() {
				fmt.Fprintln(s.out, "Nothing to go forward to")
			}
			return nil
		}},
		"reload": {"", 0, func(ctx context.Context, _ []string) error {
			if err := a.LoadUserData(ctx); err != nil {
				return err
			}
			a.Reload()
			return nil
		}},

		"add-trip": {"<name>", 1, func(ctx context.Context, args []string) error {
			_, err := a.AddTrip(ctx, strings.Join(args, " "))
			return s.refresh(err)
		}},
		"open": {"<n>", 1, func(ctx context.Context, args []string) error {
			trip, err := s.trip(args[0])
			if err != nil {
				return err
			}
			return a.OpenTrip(ctx, trip)
		}},
		"rename": {"<n> <name>", 2, func(ctx context.Context, args []string) error {
			trip, err := s.trip(args[0])
			if err != nil {
				return err
			}
			return s.refresh(a.RenameTrip(ctx, trip, strings.Join(args[1:], " ")))
		}},
		"days": {"<n> <days>", 2, func(ctx context.Context, args []string) error {
			trip, err := s.trip(args[0])
			if err != nil {
				return err
			}
			return s.refresh(a.SetTripDays(ctx, trip, args[1]))
		}},
		"delete": {"<n>", 1, func(ctx context.Context, args []string) error {
			trip, err := s.trip(args[0])
			if err != nil {
				return err
			}
			_, err = a.DeleteTrip(ctx, trip)
			return s.refresh(err)
		}},
		"start": {"<n>", 1, func(ctx context.Context, args []string) error {
			trip, err := s.trip(args[0])
			if err != nil {
				return err
			}
			_, err = a.StartTrip(ctx, trip)
			return err
		}},
		"finish": {"", 0, func(ctx context.Context, _ []string) error {
			_, _, err := a.FinishTrip(ctx)
			return err
		}},
		"cancel": {"", 0, func(ctx context.Context, _ []string) error {
			_, err := a.CancelTrip(ctx)
			return err
		}},

		"pick": {"", 0, func(ctx context.Context, _ []string) error {
			_, _, err := a.PickDestination(ctx, s.tracked())
			return s.refresh(err)
		}},
		"import": {"<url>", 1, func(ctx context.Context, args []string) error {
			place, err := a.ImportDestination(ctx, args[0])
			if err != nil {
				return err
			}
			_, err = a.AddDestination(ctx, place, s.tracked())
			return s.refresh(err)
		}},
		"scan": {"", 0, func(ctx context.Context, _ []string) error {
			place, err := a.ScanDestination(ctx)
			if err != nil {
				return err
			}
			_, err = a.AddDestination(ctx, place, s.tracked())
			return s.refresh(err)
		}},
		"dest": {"<n>", 1, func(_ context.Context, args []string) error {
			dest, err := s.destination(args[0])
			if err != nil {
				return err
			}
			return a.OpenDestination(dest, s.tracked())
		}},
		"del-dest": {"<n>", 1, func(ctx context.Context, args []string) error {
			dest, err := s.destination(args[0])
			if err != nil {
				return err
			}
			_, err = a.DeleteDestination(ctx, dest, s.tracked())
			return s.refresh(err)
		}},
		"day": {"<n> [day]", 1, s.editDestination(func(ctx context.Context, d *models.Destination, v string, tracked bool) error {
			return a.SetDestinationDay(ctx, d, v, tracked)
		}, func(tracked bool) []string {
			trip, _, err := a.target(tracked)
			if err != nil {
				return nil
			}
			return DayOptions(trip)
		}, "Day")},
		"time": {"<n> [HH:MM]", 1, s.editDestination(a.SetDestinationTime, func(bool) []string { return TimeOptions() }, "Time")},
		"by": {"<n> [transportation]", 1, s.editDestination(a.SetDestinationTransportation, func(bool) []string {
			return TransportationOptions()
		}, "Transportation")},
		"recommend": {"[category]", 0, func(_ context.Context, args []string) error {
			category := strings.Join(args, " ")
			if category == "" {
				choice, ok := a.prompter.Select("Recommendation", RecommendationCategories, defaultRecommendation)
				if !ok {
					return nil
				}
				category = choice
				if choice == "other" {
					if category, ok = a.prompter.Input("Recommendation", "What are you looking for", ""); !ok {
						return nil
					}
				}
			}
			if dest, tracked := a.state.Destination(); dest != nil && tracked && a.nav.Current() == ScreenDestinationEditor {
				return a.RecommendNear(dest, category)
			}
			return a.Recommend(category)
		}},
		"map": {"", 0, func(context.Context, []string) error {
			dest, err := s.selectedDestination()
			if err != nil {
				return err
			}
			return a.ShowOnMap(dest)
		}},
		"navigate": {"[mode]", 0, func(_ context.Context, args []string) error {
			dest, err := s.selectedDestination()
			if err != nil {
				return err
			}
			mode := ""
			if len(args) > 0 {
				mode = args[0]
			}
			return a.Navigate(dest, mode)
		}},

		"notes":  {"<n>", 1, s.openEntries(a.OpenNotes)},
		"spents": {"<n>", 1, s.openEntries(a.OpenSpents)},
		"note-add": {"<text>", 1, func(ctx context.Context, args []string) error {
			_, err := a.AddNote(ctx, strings.Join(args, " "))
			return s.refresh(err)
		}},
		"note-edit": {"<n> <text>", 2, func(ctx context.Context, args []string) error {
			note, err := s.note(args[0])
			if err != nil {
				return err
			}
			return s.refresh(a.EditNote(ctx, note, strings.Join(args[1:], " ")))
		}},
		"note-image": {"<n> [path]", 1, func(ctx context.Context, args []string) error {
			note, err := s.note(args[0])
			if err != nil {
				return err
			}
			if len(args) > 1 {
				return s.refresh(a.AttachImage(ctx, note, strings.Join(args[1:], " ")))
			}
			_, err = a.ChooseImage(ctx, note)
			return s.refresh(err)
		}},
		"note-del": {"<n>", 1, func(ctx context.Context, args []string) error {
			note, err := s.note(args[0])
			if err != nil {
				return err
			}
			_, err = a.RemoveNote(ctx, note)
			return s.refresh(err)
		}},
		"spent-add": {"<text>", 1, func(ctx context.Context, args []string) error {
			_, err := a.AddSpent(ctx, strings.Join(args, " "))
			return s.refresh(err)
		}},
		"spent-amount": {"<n> <amount>", 2, func(ctx context.Context, args []string) error {
			spent, err := s.spent(args[0])
			if err != nil {
				return err
			}
			return s.refresh(a.SetSpentAmount(ctx, spent, args[1]))
		}},
		"spent-del": {"<n>", 1, func(ctx context.Context, args []string) error {
			spent, err := s.spent(args[0])
			if err != nil {
				return err
			}
			_, err = a.RemoveSpent(ctx, spent)
			return s.refresh(err)
		}},

		"share": {"[destination n]", 0, func(ctx context.Context, args []string) error {
			trip, err := s.sharedTrip()
			if err != nil {
				return err
			}
			var dest *models.Destination
			if len(args) > 0 {
				if dest, err = s.destination(args[0]); err != nil {
					return err
				}
			}
			code, err := a.ShareQR(ctx, trip, dest, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "%s\n%s\n", code.URL, code.Image)
			if a.sharer != nil && a.prompter.Confirm("Share", "Send this link?") {
				return a.SendShare(ctx, code)
			}
			return nil
		}},
	}
}

// refresh renders the visible screen after a successful change.
func (s *Shell) refresh(err error) error {
	if err != nil {
		return err
	}
	s.app.Reload()
	return nil
}

// tracked reports whether destination commands apply to the trip in progress.
func (s *Shell) tracked() bool {
	switch s.app.nav.Current() {
	case ScreenTracker:
		return true
	case ScreenDestinations, ScreenTrips:
		return false
	}
	_, tracked := s.app.state.Destination()
	return tracked
}

func index(arg string, n int) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil || i < 1 || i > n {
		return 0, fmt.Errorf("%w: item number must be between 1 and %d", ErrUsage, n)
	}
	return i - 1, nil
}

func (s *Shell) trip(arg string) (*models.Trip, error) {
	trips := s.app.state.Trips()
	i, err := index(arg, len(trips))
	if err != nil {
		return nil, err
	}
	return trips[i], nil
}

func (s *Shell) destinations() []*models.Destination {
	if s.tracked() {
		if active := s.app.state.ActiveTrip(); active != nil {
			return active.SortedDestinations()
		}
		return nil
	}
	return s.app.state.Destinations()
}

func (s *Shell) destination(arg string) (*models.Destination, error) {
	dests := s.destinations()
	i, err := index(arg, len(dests))
	if err != nil {
		return nil, err
	}
	return dests[i], nil
}

func (s *Shell) selectedDestination() (*models.Destination, error) {
	dest, _ := s.app.state.Destination()
	if dest == nil {
		return nil, ErrNoDestination
	}
	return dest, nil
}

func (s *Shell) note(arg string) (*models.Note, error) {
	dest, err := s.selectedDestination()
	if err != nil {
		return nil, err
	}
	i, err := index(arg, len(dest.Notes))
	if err != nil {
		return nil, err
	}
	return dest.Notes[i], nil
}

func (s *Shell) spent(arg string) (*models.Spent, error) {
	dest, err := s.selectedDestination()
	if err != nil {
		return nil, err
	}
	i, err := index(arg, len(dest.Spents))
	if err != nil {
		return nil, err
	}
	return dest.Spents[i], nil
}

// sharedTrip is the trip on the visible screen.
func (s *Shell) sharedTrip() (*models.Trip, error) {
	if s.tracked() {
		if active := s.app.state.ActiveTrip(); active != nil {
			return active, nil
		}
		return nil, ErrNoActiveTrip
	}
	if trip := s.app.state.Trip(); trip != nil {
		return trip, nil
	}
	return nil, ErrNoTrip
}

func (s *Shell) openEntries(open func(*models.Destination, bool) error) func(context.Context, []string) error {
	return func(_ context.Context, args []string) error {
		dest, err := s.destination(args[0])
		if err != nil {
			return err
		}
		return open(dest, s.tracked())
	}
}

// editDestination sets one field of destination n, from the command line or
// from a selection among options.
func (s *Shell) editDestination(
	set func(ctx context.Context, d *models.Destination, value string, tracked bool) error,
	options func(tracked bool) []string,
	title string,
) func(context.Context, []string) error {
	return func(ctx context.Context, args []string) error {
		tracked := s.tracked()
		dest, err := s.destination(args[0])
		if err != nil {
			return err
		}
		value := strings.Join(args[1:], " ")
		if value == "" {
			var ok bool
			if value, ok = s.app.prompter.Select(title, options(tracked), ""); !ok {
				return nil
			}
		}
		return s.refresh(set(ctx, dest, value, tracked))
	}
}
