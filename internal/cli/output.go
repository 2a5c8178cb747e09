package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/example/onlinetravel/internal/models"
)

type tripView struct {
	ID           string     `yaml:"id"`
	Name         string     `yaml:"name"`
	Days         int        `yaml:"days"`
	Budget       int        `yaml:"budget"`
	Active       bool       `yaml:"active"`
	Destinations []destView `yaml:"destinations,omitempty"`
}

type destView struct {
	ID             string      `yaml:"id"`
	Name           string      `yaml:"name"`
	Address        string      `yaml:"address,omitempty"`
	Latitude       float64     `yaml:"latitude,omitempty"`
	Longitude      float64     `yaml:"longitude,omitempty"`
	Day            *int        `yaml:"day,omitempty"`
	Time           string      `yaml:"time,omitempty"`
	Transportation string      `yaml:"transportation,omitempty"`
	Budget         int         `yaml:"budget"`
	Notes          []noteView  `yaml:"notes,omitempty"`
	Spents         []spentView `yaml:"spents,omitempty"`
}

type noteView struct {
	ID      string `yaml:"id"`
	Content string `yaml:"content"`
	Image   string `yaml:"image,omitempty"`
}

type spentView struct {
	ID      string `yaml:"id"`
	Content string `yaml:"content"`
	Spent   int    `yaml:"spent"`
}

func newTripView(t *models.Trip, withDestinations bool) tripView {
	v := tripView{ID: t.ID, Name: t.Name, Days: t.Days, Budget: t.Budget, Active: t.Active}
	if withDestinations {
		for _, d := range t.SortedDestinations() {
			v.Destinations = append(v.Destinations, newDestView(d))
		}
	}
	return v
}

func newDestView(d *models.Destination) destView {
	v := destView{
		ID:             d.ID,
		Name:           d.Name,
		Address:        d.Address,
		Latitude:       d.Latitude,
		Longitude:      d.Longitude,
		Day:            d.Day,
		Time:           d.Time,
		Transportation: string(d.Transportation),
		Budget:         d.CalculateBudget(),
	}
	for _, n := range d.Notes {
		v.Notes = append(v.Notes, newNoteView(n))
	}
	for _, s := range d.Spents {
		v.Spents = append(v.Spents, spentView{ID: s.ID, Content: s.Content, Spent: s.Spent})
	}
	return v
}

func newNoteView(n *models.Note) noteView {
	return noteView{ID: n.ID, Content: n.Content, Image: n.Image}
}

// print writes v as yaml, or calls text with a tab-aligned writer.
func (r *runtime) print(w io.Writer, v interface{}, text func(w io.Writer)) error {
	if r.output == OutputYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		return enc.Close()
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

func writeTrips(w io.Writer, trips []tripView) {
	fmt.Fprintln(w, "#\tNAME\tDAYS\tBUDGET\tACTIVE\tID")
	for i, t := range trips {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%t\t%s\n", i+1, t.Name, t.Days, t.Budget, t.Active, t.ID)
	}
}

func writeDestinations(w io.Writer, dests []destView) {
	fmt.Fprintln(w, "#\tNAME\tDAY\tTIME\tBY\tBUDGET")
	for i, d := range dests {
		day := "-"
		if d.Day != nil {
			day = fmt.Sprint(*d.Day)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n", i+1, d.Name, day, orDash(d.Time), orDash(d.Transportation), d.Budget)
	}
}

func writeDestination(w io.Writer, d destView) {
	fmt.Fprintf(w, "Name:\t%s\n", d.Name)
	if d.Address != "" {
		fmt.Fprintf(w, "Address:\t%s\n", d.Address)
	}
	fmt.Fprintf(w, "Budget:\t%d\n", d.Budget)
	for i, n := range d.Notes {
		fmt.Fprintf(w, "Note %d:\t%s\t%s\n", i+1, n.Content, n.Image)
	}
	for i, s := range d.Spents {
		fmt.Fprintf(w, "Spent %d:\t%s\t%d\n", i+1, s.Content, s.Spent)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
