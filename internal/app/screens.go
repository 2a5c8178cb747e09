package app

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/example/onlinetravel/internal/models"
	"github.com/example/onlinetravel/internal/nav"
)

// view is a text screen. It renders the current State whenever it is
// reloaded or entered.
type view struct {
	app    *App
	title  string
	render func(w io.Writer)
}

var (
	_ nav.Screen    = (*view)(nil)
	_ nav.EnterHook = (*view)(nil)
)

func (v *view) Reload() {
	fmt.Fprintf(v.app.out, "== %s ==\n", v.title)
	v.render(v.app.out)
}

func (v *view) OnEnter() { v.Reload() }

func (a *App) registerScreens() {
	screens := map[string]struct {
		title  string
		render func(w io.Writer)
	}{
		ScreenLogin:             {"Sign in", a.renderLogin},
		ScreenHome:              {"Online Travel", a.renderHome},
		ScreenTrips:             {"Trips", a.renderTrips},
		ScreenDestinations:      {"Destinations", a.renderDestinations},
		ScreenDestinationEditor: {"Destination", a.renderDestination},
		ScreenNotes:             {"Notes", a.renderNotes},
		ScreenSpents:            {"Spents", a.renderSpents},
		ScreenTracker:           {"On the trip", a.renderTracker},
	}
	for name, s := range screens {
		a.nav.Register(name, func() nav.Screen {
			return &view{app: a, title: s.title, render: s.render}
		})
	}
}

// Reload renders the visible screen again.
func (a *App) Reload() {
	name := a.nav.Current()
	if name == "" {
		return
	}
	if s, err := a.nav.Screen(name); err == nil {
		s.Reload()
	}
}

func (a *App) renderLogin(w io.Writer) {
	if email := a.session.CachedEmail(); email != "" {
		fmt.Fprintf(w, "Last signed in as %s\n", email)
	}
	fmt.Fprintln(w, "login <email> <password> | register <email> <password>")
}

func (a *App) renderHome(w io.Writer) {
	fmt.Fprintf(w, "Signed in as %s\n", a.session.Account().Email)
	fmt.Fprintf(w, "%d trip(s)\n", len(a.state.Trips()))
	if active := a.state.ActiveTrip(); active != nil {
		fmt.Fprintf(w, "On the trip: %s\n", active.Name)
	}
	fmt.Fprintln(w, "trips | tracker | signout")
}

func (a *App) renderTrips(w io.Writer) {
	trips := a.state.Trips()
	if len(trips) == 0 {
		fmt.Fprintln(w, "No trips yet")
		return
	}
	active := a.state.ActiveTrip()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, t := range trips {
		mark := ""
		if t.Active || active != nil && active.ID == t.ID {
			mark = "active"
		}
		fmt.Fprintf(tw, "%d)\t%s\t%d day(s)\t%s\n", i+1, t.Name, t.Days, mark)
	}
	tw.Flush()
}

func (a *App) renderDestinations(w io.Writer) {
	trip := a.state.Trip()
	if trip == nil {
		fmt.Fprintln(w, "No trip selected")
		return
	}
	fmt.Fprintf(w, "%s, %d day(s), budget %d\n", trip.Name, trip.Days, trip.Budget)
	writeDestinations(w, a.state.Destinations())
}

func (a *App) renderTracker(w io.Writer) {
	active := a.state.ActiveTrip()
	if active == nil {
		fmt.Fprintln(w, "No trip in progress")
		return
	}
	fmt.Fprintf(w, "%s, spent %d so far\n", active.Name, active.CalculateBudget())
	writeDestinations(w, active.SortedDestinations())
}

func writeDestinations(w io.Writer, dests []*models.Destination) {
	if len(dests) == 0 {
		fmt.Fprintln(w, "No destinations")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, d := range dests {
		fmt.Fprintf(tw, "%d)\t%s\t%s\t%s\t%s\t%d\n", i+1, dayLabel(d), d.Time, d.Name, d.Transportation, d.CalculateBudget())
	}
	tw.Flush()
}

func dayLabel(d *models.Destination) string {
	if d.Day == nil {
		return "-"
	}
	return fmt.Sprintf("day %d", *d.Day)
}

func (a *App) renderDestination(w io.Writer) {
	d, tracked := a.state.Destination()
	if d == nil {
		fmt.Fprintln(w, "No destination selected")
		return
	}
	fmt.Fprintln(w, d.Name)
	if d.Address != "" {
		fmt.Fprintln(w, d.Address)
	}
	fmt.Fprintf(w, "Day: %s  Time: %s  By: %s\n", dayLabel(d), d.Time, d.Transportation)
	fmt.Fprintf(w, "%d note(s), %d spent(s), budget %d\n", len(d.Notes), len(d.Spents), d.CalculateBudget())
	if tracked {
		fmt.Fprintln(w, "map | navigate | recommend")
	}
}

func (a *App) renderNotes(w io.Writer) {
	d, _ := a.state.Destination()
	if d == nil {
		fmt.Fprintln(w, "No destination selected")
		return
	}
	if len(d.Notes) == 0 {
		fmt.Fprintln(w, "No notes")
		return
	}
	for i, n := range d.Notes {
		fmt.Fprintf(w, "%d) %s\n", i+1, n.Content)
		if n.Image != "" {
			fmt.Fprintf(w, "   image: %s\n", n.Image)
		}
	}
}

func (a *App) renderSpents(w io.Writer) {
	d, _ := a.state.Destination()
	if d == nil {
		fmt.Fprintln(w, "No destination selected")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, s := range d.Spents {
		fmt.Fprintf(tw, "%d)\t%s\t%d\n", i+1, s.Content, s.Spent)
	}
	fmt.Fprintf(tw, "\tTotal\t%d\n", d.CalculateBudget())
	tw.Flush()
}
