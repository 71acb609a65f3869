// Package tui implements the motiontrail terminal viewer.
//
// The left pane is the motion trail, painted on a cell canvas. The right
// pane is the wireframe cube. Both are driven by one scene.Scene, and
// every scene call happens inside BubbleTea's Update: readings arrive as
// messages from a feed goroutine, and timer and frame callbacks arrive as
// messages drained from a scene.Dispatcher.
//
// Component architecture:
//
//	model.go   root model, message routing, Init/Update/View
//	feed.go    runs a motion.Source and hands readings to the loop
//	theme.go   centralized color + style definitions
//	header.go  top bar and footer status line
//	panes.go   trail pane, cube pane, readout line
package tui
