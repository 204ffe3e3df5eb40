package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/jbtracks/internal/manager"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgOrganismsLoaded MsgKind = iota
	MsgAssembliesLoaded
	MsgTracksLoaded
	MsgTrackRemoved
)

type namesData struct {
	names []string
	err   error
}

type tracksData struct {
	tracks []manager.TrackInfo
	stats  *manager.Statistics
	err    error
}

// organismsLoadedMsg is the constructor for [MsgOrganismsLoaded]
func organismsLoadedMsg(organisms []string, err error) Msg {
	return Msg{kind: MsgOrganismsLoaded, data: namesData{organisms, err}}
}

// assembliesLoadedMsg is the constructor for [MsgAssembliesLoaded]
func assembliesLoadedMsg(assemblies []string, err error) Msg {
	return Msg{kind: MsgAssembliesLoaded, data: namesData{assemblies, err}}
}

// tracksLoadedMsg is the constructor for [MsgTracksLoaded]
func tracksLoadedMsg(tracks []manager.TrackInfo, stats *manager.Statistics, err error) Msg {
	return Msg{kind: MsgTracksLoaded, data: tracksData{tracks, stats, err}}
}

// trackRemovedMsg is the constructor for [MsgTrackRemoved]
func trackRemovedMsg(result *manager.Result) Msg {
	return Msg{kind: MsgTrackRemoved, data: result}
}
