package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/example/onlinetravel/internal/models"
	"github.com/example/onlinetravel/internal/platform"
)

// ErrInvalidAmount is returned for an expense amount that is not a whole number of at least zero.
var ErrInvalidAmount = errors.New("please input an integral amount")

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

// OpenDestination selects dest and shows its editor.
func (a *App) OpenDestination(dest *models.Destination, tracked bool) error {
	a.state.SelectDestination(dest, tracked)
	return a.nav.Show(ScreenDestinationEditor, false)
}

// OpenNotes selects dest and shows its notes.
func (a *App) OpenNotes(dest *models.Destination, tracked bool) error {
	a.state.SelectDestination(dest, tracked)
	return a.nav.Show(ScreenNotes, false)
}

// OpenSpents selects dest and shows its expenses.
func (a *App) OpenSpents(dest *models.Destination, tracked bool) error {
	a.state.SelectDestination(dest, tracked)
	return a.nav.Show(ScreenSpents, false)
}

// selected returns the selected destination and where its entries go.
func (a *App) selected() (*models.Trip, *models.Destination, tripStore, error) {
	dest, tracked := a.state.Destination()
	if dest == nil {
		return nil, nil, nil, ErrNoDestination
	}
	trip, store, err := a.target(tracked)
	if err != nil {
		return nil, nil, nil, err
	}
	return trip, dest, store, nil
}

// AddNote adds a note to the selected destination.
func (a *App) AddNote(ctx context.Context, content string) (*models.Note, error) {
	_, dest, store, err := a.selected()
	if err != nil {
		return nil, err
	}
	note := &models.Note{Content: content}
	if err := store.AddNote(ctx, dest, note); err != nil {
		return nil, err
	}
	dest.Notes = append(dest.Notes, note)
	return note, nil
}

func (a *App) EditNote(ctx context.Context, note *models.Note, content string) error {
	_, dest, store, err := a.selected()
	if err != nil {
		return err
	}
	prev := note.Content
	note.Content = content
	if err := store.UpdateNote(ctx, dest, note); err != nil {
		note.Content = prev
		return err
	}
	return nil
}

// AttachImage uploads the local file at path and links it from note.
func (a *App) AttachImage(ctx context.Context, note *models.Note, path string) error {
	_, dest, store, err := a.selected()
	if err != nil {
		return err
	}
	u, err := store.UploadImage(ctx, note, path)
	if err != nil {
		return err
	}
	prev := note.Image
	note.Image = u
	if err := store.UpdateNote(ctx, dest, note); err != nil {
		note.Image = prev
		return err
	}
	return nil
}

// ChooseImage asks the user for an image file and attaches it to note. It
// reports false when nothing was chosen.
func (a *App) ChooseImage(ctx context.Context, note *models.Note) (bool, error) {
	if a.files == nil {
		return false, platform.ErrUnsupported
	}
	path, ok, err := a.files.Choose(ctx, imageExtensions)
	if err != nil || !ok {
		return false, err
	}
	return true, a.AttachImage(ctx, note, path)
}

// RemoveNote deletes note after confirmation and reports whether it did.
func (a *App) RemoveNote(ctx context.Context, note *models.Note) (bool, error) {
	_, dest, store, err := a.selected()
	if err != nil {
		return false, err
	}
	if !a.prompter.Confirm("Remove note", "Do you want to remove this note?") {
		return false, nil
	}
	if err := store.RemoveNote(ctx, dest, note); err != nil {
		return false, err
	}
	dest.Notes = slices.DeleteFunc(dest.Notes, func(n *models.Note) bool { return n.ID == note.ID })
	return true, nil
}

// AddSpent adds an expense of zero to the selected destination.
func (a *App) AddSpent(ctx context.Context, content string) (*models.Spent, error) {
	_, dest, store, err := a.selected()
	if err != nil {
		return nil, err
	}
	spent := &models.Spent{Content: content}
	if err := store.AddSpent(ctx, dest, spent); err != nil {
		return nil, err
	}
	dest.Spents = append(dest.Spents, spent)
	return spent, nil
}

// SetSpentAmount sets the amount of spent from the text the user typed and
// recalculates the budgets.
func (a *App) SetSpentAmount(ctx context.Context, spent *models.Spent, amount string) error {
	n, err := strconv.Atoi(strings.TrimSpace(amount))
	if err != nil || n < 0 {
		return ErrInvalidAmount
	}
	trip, dest, store, err := a.selected()
	if err != nil {
		return err
	}
	prev := spent.Spent
	spent.Spent = n
	if err := store.UpdateSpent(ctx, dest, spent); err != nil {
		spent.Spent = prev
		return err
	}
	trip.CalculateBudget()
	return nil
}

// RenameSpent changes what spent was for.
func (a *App) RenameSpent(ctx context.Context, spent *models.Spent, content string) error {
	_, dest, store, err := a.selected()
	if err != nil {
		return err
	}
	prev := spent.Content
	spent.Content = content
	if err := store.UpdateSpent(ctx, dest, spent); err != nil {
		spent.Content = prev
		return err
	}
	return nil
}

// RemoveSpent deletes spent after confirmation and reports whether it did.
func (a *App) RemoveSpent(ctx context.Context, spent *models.Spent) (bool, error) {
	trip, dest, store, err := a.selected()
	if err != nil {
		return false, err
	}
	if !a.prompter.Confirm("Remove spent", fmt.Sprintf("Do you want to remove '%s'?", spent.Content)) {
		return false, nil
	}
	if err := store.RemoveSpent(ctx, dest, spent); err != nil {
		return false, err
	}
	dest.Spents = slices.DeleteFunc(dest.Spents, func(s *models.Spent) bool { return s.ID == spent.ID })
	trip.CalculateBudget()
	return true, nil
}
