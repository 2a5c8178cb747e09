package app_test

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/onlinetravel/internal/app"
)

func linePrompter(input string) (*app.LinePrompter, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return app.NewLinePrompter(bufio.NewReader(strings.NewReader(input)), out), out
}

func TestLinePrompter_Input(t *testing.T) {
	p, out := linePrompter("Porto\n\n")

	v, ok := p.Input("Rename trip", "Name", "Lisbon")
	assert.True(t, ok)
	assert.Equal(t, "Porto", v)
	assert.Contains(t, out.String(), "Name [Lisbon]: ")

	v, ok = p.Input("Rename trip", "Name", "Lisbon")
	assert.True(t, ok)
	assert.Equal(t, "Lisbon", v, "empty answer keeps the initial value")

	_, ok = p.Input("Rename trip", "Name", "")
	assert.False(t, ok, "end of input cancels")
}

func TestLinePrompter_Select(t *testing.T) {
	p, out := linePrompter("2\nbar\nsubmarine\n")
	options := []string{"attraction", "bar", "hotel"}

	v, ok := p.Select("Recommendation", options, "hotel")
	assert.True(t, ok)
	assert.Equal(t, "bar", v)
	assert.Contains(t, out.String(), "* 3) hotel")

	v, ok = p.Select("Recommendation", options, "")
	assert.True(t, ok)
	assert.Equal(t, "bar", v)

	_, ok = p.Select("Recommendation", options, "")
	assert.False(t, ok)
}

func TestLinePrompter_Confirm(t *testing.T) {
	p, _ := linePrompter("y\nno\n")

	assert.True(t, p.Confirm("Sign out", "Are you sure to sign out?"))
	assert.False(t, p.Confirm("Sign out", "Are you sure to sign out?"))
	assert.False(t, p.Confirm("Sign out", "Are you sure to sign out?"))
}
