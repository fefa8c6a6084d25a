// Package main provides the formengine-tui binary — a Bubble Tea terminal
// walkthrough of a journey's steps.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ormasoftchile/formengine/pkg/ecosystem/tui"
	"github.com/ormasoftchile/formengine/pkg/formhost"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: formengine-tui <journey.yaml>")
		os.Exit(1)
	}
	journeyPath := os.Args[1]

	doc, err := formhost.LoadDoc(journeyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", journeyPath, err)
		os.Exit(1)
	}

	stepPaths := formhost.StepPaths(doc)
	if len(stepPaths) == 0 {
		fmt.Fprintln(os.Stderr, "journey has no steps")
		os.Exit(1)
	}

	model := tui.NewModel(journeyPath, stepPaths)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
