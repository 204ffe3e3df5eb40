package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/jbtracks/internal/manager"
)

var (
	_ list.Item = dirItem{}
	_ list.Item = trackItem{}
)

// dirItem is an organism or assembly directory.
type dirItem struct {
	name string
	desc string
}

func (i dirItem) FilterValue() string { return i.name }
func (i dirItem) Title() string       { return i.name }
func (i dirItem) Description() string { return i.desc }

// trackItem wraps [manager.TrackInfo] to implement [list.Item].
type trackItem struct {
	track manager.TrackInfo
}

func (i trackItem) FilterValue() string { return i.track.TrackID + " " + i.track.Name }
func (i trackItem) Title() string {
	if i.track.Name == "" {
		return i.track.TrackID
	}
	return i.track.Name
}
func (i trackItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.track.Type, i.track.TrackID)
	if i.track.Category != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Category)
	}
	if i.track.AccessLevel != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.AccessLevel)
	}
	return desc
}
