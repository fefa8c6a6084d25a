package formhost

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/ormasoftchile/formengine/pkg/answerhistory"
	"github.com/ormasoftchile/formengine/pkg/evaluator"
	"github.com/ormasoftchile/formengine/pkg/ir"
	"github.com/ormasoftchile/formengine/pkg/projection"
	"github.com/ormasoftchile/formengine/pkg/thunk"
)

// Debugger is an interactive REPL for stepping through one step's relevant
// nodes one invocation at a time: it steps through the relevant-node
// projection of one compiled step in sorted node-id order (not dependency
// order), invoking one node per "next".
type Debugger struct {
	step     *evaluator.CompiledStep
	ev       *evaluator.Evaluator
	ectx     *thunk.EvalContext
	answers  *answerhistory.History
	order    []ir.NodeID
	cursor   int
	output   io.Writer
	rl       *readline.Instance
}

// NewDebuggerSession constructs a Debugger ready to run: a fresh
// EvalContext for one GET request against step, evaluated through ev, stepping
// through its relevant nodes in a stable (sorted id) order.
func NewDebuggerSession(step *evaluator.CompiledStep, ev *evaluator.Evaluator, answers *answerhistory.History) *Debugger {
	rel := projection.Project(step.Registry, step.JourneyRoot, step.StepID)
	order := make([]ir.NodeID, 0, len(rel))
	for id := range rel {
		order = append(order, id)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	ectx := ev.CreateContext(thunk.Request{Method: "GET"}, map[string]any{}, answers)
	return &Debugger{
		step:    step,
		ev:      ev,
		ectx:    ectx,
		answers: answers,
		order:   order,
		output:  os.Stdout,
	}
}

// Run starts the interactive REPL loop.
func (d *Debugger) Run() error {
	completer := readline.NewPrefixCompleter(
		readline.PcItem("next"),
		readline.PcItem("continue"),
		readline.PcItem("dump"),
		readline.PcItem("print"),
		readline.PcItem("answers"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          d.buildPrompt(),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	d.rl = rl
	defer rl.Close()

	fmt.Fprintf(d.output, "formengine debugger — step %q, %d relevant node(s)\n", d.step.StepID, len(d.order))
	fmt.Fprintf(d.output, "Type 'help' for available commands, 'next' to evaluate the next node.\n\n")

	for {
		rl.SetPrompt(d.buildPrompt())
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		switch parts[0] {
		case "next", "n":
			d.handleNext()
		case "continue", "c":
			d.handleContinue()
		case "dump", "d":
			d.handleDump()
		case "print", "p":
			d.handlePrint(parts)
		case "answers", "a":
			d.handleAnswers()
		case "help", "?":
			d.handleHelp()
		case "quit", "q":
			fmt.Fprintf(d.output, "Exiting debugger.\n")
			return nil
		default:
			fmt.Fprintf(d.output, "Unknown command: %q. Type 'help' for available commands.\n", parts[0])
		}
	}
}

func (d *Debugger) buildPrompt() string {
	if d.cursor >= len(d.order) {
		return "formengine[done]> "
	}
	return fmt.Sprintf("formengine[%d/%d]> ", d.cursor+1, len(d.order))
}

func (d *Debugger) handleNext() {
	if d.cursor >= len(d.order) {
		fmt.Fprintf(d.output, "no more relevant nodes\n")
		return
	}
	id := d.order[d.cursor]
	d.cursor++
	r := d.ev.Invoke(id, d.ectx)
	if r.Error != nil {
		fmt.Fprintf(d.output, "%s -> error [%s] %s\n", id, r.Error.Kind, r.Error.Message)
		return
	}
	fmt.Fprintf(d.output, "%s -> %v\n", id, r.Value)
}

func (d *Debugger) handleContinue() {
	for d.cursor < len(d.order) {
		d.handleNext()
	}
}

func (d *Debugger) handleDump() {
	n, _ := d.step.Registry.Node(d.step.StepID)
	fmt.Fprintf(d.output, "step: %s (%s)\n", d.step.StepID, n.Path)
	for i, id := range d.order {
		marker := " "
		if i < d.cursor {
			marker = "x"
		} else if i == d.cursor {
			marker = ">"
		}
		node, _ := d.step.Registry.Node(id)
		fmt.Fprintf(d.output, "  [%s] %s  %s\n", marker, id, node.Kind)
	}
}

func (d *Debugger) handlePrint(parts []string) {
	if len(parts) < 2 {
		fmt.Fprintf(d.output, "usage: print <node-id>\n")
		return
	}
	id := ir.NodeID(parts[1])
	n, ok := d.step.Registry.Node(id)
	if !ok {
		fmt.Fprintf(d.output, "no such node: %s\n", id)
		return
	}
	fmt.Fprintf(d.output, "%s: kind=%s path=%s\n", id, n.Kind, n.Path)
}

func (d *Debugger) handleAnswers() {
	for _, code := range d.answers.Codes() {
		v, _ := d.answers.Current(code)
		fmt.Fprintf(d.output, "  %s = %v (source: %s)\n", code, v, d.answers.LatestSource(code))
	}
}

func (d *Debugger) handleHelp() {
	fmt.Fprintf(d.output, `commands:
  next, n       evaluate the next relevant node
  continue, c   evaluate all remaining relevant nodes
  dump, d       list relevant nodes and their evaluation status
  print, p ID   show a node's kind and path
  answers, a    show the current answer history
  help, ?       show this message
  quit, q       exit the debugger
`)
}
