// Package ui implements an interactive terminal browser for generated tracks using bubbletea's Elm architecture.
//
// The TUI walks the artifact tree one level at a time:
//  1. [OrganismListView] : Browse organisms with track configs
//  2. [AssemblyListView] : Pick an assembly of the selected organism
//  3. [TrackListView] : Browse its tracks with a statistics header
//  4. [ConfirmView] : Confirm removal of the selected track
//  5. [ResultView] : Show the removed items and any errors
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// All filesystem work goes through [manager.Manager]; the dry-run toggle is passed through to every removal.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, x, t, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
