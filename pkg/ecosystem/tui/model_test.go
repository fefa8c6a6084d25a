package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func keyMsg(name string) tea.KeyMsg {
	switch name {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(name)}
	}
}

func TestModel_InitFromSteps(t *testing.T) {
	m := NewModel("journey.yaml", []string{"/start", "/details", "/confirm"})
	if len(m.steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(m.steps))
	}
	if m.steps[0].Path != "/start" {
		t.Errorf("steps[0].Path = %q, want /start", m.steps[0].Path)
	}
	if m.steps[0].Status != "pending" {
		t.Errorf("steps[0].Status = %q, want pending", m.steps[0].Status)
	}
}

func TestModel_Navigation(t *testing.T) {
	m := NewModel("journey.yaml", []string{"/start", "/details"})

	updated, _ := m.Update(keyMsg("down"))
	m2 := updated.(Model)
	if m2.selected != 1 {
		t.Errorf("selected after down = %d, want 1", m2.selected)
	}

	updated, _ = m2.Update(keyMsg("down"))
	m3 := updated.(Model)
	if m3.selected != 1 {
		t.Errorf("selected should clamp at last index, got %d", m3.selected)
	}

	updated, _ = m3.Update(keyMsg("up"))
	m4 := updated.(Model)
	if m4.selected != 0 {
		t.Errorf("selected after up = %d, want 0", m4.selected)
	}
}

func TestModel_EvaluateSelected_CompileError(t *testing.T) {
	m := NewModel("/nonexistent/journey.yaml", []string{"/start"})
	m.evaluateSelected()
	if m.steps[0].Status != "error" {
		t.Errorf("status = %q, want error for a missing journey file", m.steps[0].Status)
	}
}
