package build

import (
	"path"
	"strings"

	"git.home.luguber.info/inful/buildstamp/internal/shell"
	"git.home.luguber.info/inful/buildstamp/internal/targets"
)

// GoTool is the program every command invokes.
const GoTool = "go"

// Plan is the derived build description: what to compile and how to stamp it.
// MainTarget is a key of Targets, or empty when Targets is.
type Plan struct {
	Targets    targets.Set
	MainTarget string
	Ldflags    Flags
	// Trimpath adds -trimpath to every command.
	Trimpath bool
}

// NewPlan selects the main target for moduleIdent and returns the plan.
func NewPlan(set targets.Set, moduleIdent string, flags Flags) Plan {
	main, _ := targets.SelectMain(set, moduleIdent)
	return Plan{
		Targets:    set,
		MainTarget: main,
		Ldflags:    flags,
		Trimpath:   true,
	}
}

// Command is one go tool invocation for a target.
type Command struct {
	Target string
	Action Action
	// Output is the binary path, empty unless Action is ActionBuild.
	Output string
	Args   []string
}

// Shell returns the command as a runnable shell.Command.
func (c Command) Shell() shell.Command {
	return shell.Command{Name: GoTool, Args: c.Args}
}

// String renders the command the way it is echoed before execution, with the
// ldflags value double-quoted.
func (c Command) String() string {
	parts := []string{GoTool}
	for i, a := range c.Args {
		if i > 0 && c.Args[i-1] == "-ldflags" {
			parts = append(parts, `"`+strings.ReplaceAll(a, `"`, `\"`)+`"`)
			continue
		}
		parts = append(parts, shell.Quote(a))
	}
	return strings.Join(parts, " ")
}

// Command renders the command for a single target.
func (p Plan) Command(action Action, binDir, name string) (Command, bool) {
	t, ok := p.Targets[name]
	if !ok {
		return Command{}, false
	}
	args := []string{string(action)}
	if p.Trimpath {
		args = append(args, "-trimpath")
	}
	args = append(args, "-ldflags", p.Ldflags.String())
	cmd := Command{Target: t.Name, Action: action}
	if action.EmitsOutput() {
		cmd.Output = BinaryPath(binDir, t.Name)
		args = append(args, "-o", cmd.Output)
	}
	cmd.Args = append(args, t.SourcePath)
	return cmd, true
}

// Commands renders one command per target, sorted by target name.
func (p Plan) Commands(action Action, binDir string) []Command {
	names := p.Targets.Names()
	cmds := make([]Command, 0, len(names))
	for _, name := range names {
		if cmd, ok := p.Command(action, binDir, name); ok {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

// Main renders the command for the main target.
func (p Plan) Main(action Action, binDir string) (Command, bool) {
	if p.MainTarget == "" {
		return Command{}, false
	}
	return p.Command(action, binDir, p.MainTarget)
}

// BinaryPath is where the build action writes the binary for name.
func BinaryPath(binDir, name string) string {
	out := path.Join(binDir, name)
	if !strings.HasPrefix(out, "/") && !strings.HasPrefix(out, ".") {
		out = "./" + out
	}
	return out
}

// TestCommand is the command run by the test task: the whole module with
// coverage and the race detector, followed by extra.
func TestCommand(extra ...string) shell.Command {
	args := append([]string{"test", "-cover", "-race", "./..."}, extra...)
	return shell.Command{Name: GoTool, Args: args}
}
