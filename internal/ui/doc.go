// Package ui implements an interactive import monitor using bubbletea's Elm architecture.
//
// The TUI walks through three views:
//  1. [ConfirmView] : Show the source and destination playlist and ask before importing
//  2. [ImportView] : Monitor real-time progress with a spinner and progress bar
//  3. [ResultView] : Display the run summary and browse entries that were not imported
//
// The [Model] implements the standard Init/Update/View pattern, receiving messages via the [Msg] union type.
// Progress updates flow through a channel from the ImportEngine, so the engine never blocks on rendering.
//
// Keyboard navigation uses vim-style bindings (j/k, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
