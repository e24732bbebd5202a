package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/buildstamp/internal/foundation/errors"
	"git.home.luguber.info/inful/buildstamp/internal/targets"
)

func httpEchoPlan() Plan {
	set := targets.Set{
		"server": {Name: "server", SourcePath: "./cmd/server/..."},
		"client": {Name: "client", SourcePath: "./cmd/client/..."},
	}
	flags := Flags{{Symbol: "github.com/hashicorp/http-echo/pkg/buildinfo.Version", Value: "v0.2.4-rc.1.gabc1234"}}
	return NewPlan(set, "http-echo", flags)
}

func TestParseAction(t *testing.T) {
	for raw, want := range map[string]Action{"build": ActionBuild, "RUN": ActionRun, " test ": ActionTest} {
		got, err := ParseAction(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}

	for _, raw := range []string{"", "install", "vet"} {
		_, err := ParseAction(raw)
		require.Error(t, err, raw)
		assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	}
}

func TestNewPlanSelectsMainTarget(t *testing.T) {
	p := httpEchoPlan()
	assert.Equal(t, "client", p.MainTarget)
	assert.Contains(t, p.Targets, p.MainTarget)
	assert.True(t, p.Trimpath)
}

func TestNewPlanEmpty(t *testing.T) {
	p := NewPlan(targets.Set{}, "app", nil)
	assert.Empty(t, p.MainTarget)
	assert.Empty(t, p.Commands(ActionBuild, "./bin"))
	_, ok := p.Main(ActionRun, "./bin")
	assert.False(t, ok)
}

func TestPlanCommandsBuild(t *testing.T) {
	cmds := httpEchoPlan().Commands(ActionBuild, "./bin")
	require.Len(t, cmds, 2)

	assert.Equal(t, "client", cmds[0].Target)
	assert.Equal(t, "server", cmds[1].Target)
	assert.Equal(t, "./bin/server", cmds[1].Output)
	assert.Equal(t, []string{
		"build", "-trimpath",
		"-ldflags", "-X github.com/hashicorp/http-echo/pkg/buildinfo.Version=v0.2.4-rc.1.gabc1234",
		"-o", "./bin/server",
		"./cmd/server/...",
	}, cmds[1].Args)
	assert.Equal(t,
		`go build -trimpath -ldflags "-X github.com/hashicorp/http-echo/pkg/buildinfo.Version=v0.2.4-rc.1.gabc1234" -o ./bin/server ./cmd/server/...`,
		cmds[1].String())
}

func TestPlanCommandsRunAndTestOmitOutput(t *testing.T) {
	for _, action := range []Action{ActionRun, ActionTest} {
		for _, cmd := range httpEchoPlan().Commands(action, "./bin") {
			assert.Empty(t, cmd.Output)
			assert.NotContains(t, cmd.Args, "-o")
			assert.Equal(t, string(action), cmd.Args[0])
		}
	}
}

func TestPlanWithoutTrimpath(t *testing.T) {
	p := httpEchoPlan()
	p.Trimpath = false
	cmd, ok := p.Main(ActionRun, "bin")
	require.True(t, ok)
	assert.Equal(t, "client", cmd.Target)
	assert.NotContains(t, cmd.Args, "-trimpath")
}

func TestCommandStringQuotesLdflags(t *testing.T) {
	cmd := Command{Args: []string{"build", "-ldflags", `-X 'm/pkg/buildinfo.BuildRoot=/my src' -X m/pkg/buildinfo.GitRepo="x"`, "./cmd/a/..."}}
	assert.Equal(t, `go build -ldflags "-X 'm/pkg/buildinfo.BuildRoot=/my src' -X m/pkg/buildinfo.GitRepo=\"x\"" ./cmd/a/...`, cmd.String())
	assert.Equal(t, GoTool, cmd.Shell().Name)
}

func TestBinaryPath(t *testing.T) {
	assert.Equal(t, "./bin/server", BinaryPath("./bin", "server"))
	assert.Equal(t, "./bin/server", BinaryPath("bin", "server"))
	assert.Equal(t, "/opt/out/server", BinaryPath("/opt/out", "server"))
	assert.Equal(t, "../out/server", BinaryPath("../out", "server"))
}

func TestTestCommand(t *testing.T) {
	assert.Equal(t, "go test -cover -race ./...", TestCommand().String())
	assert.Equal(t, "go test -cover -race ./... -run TestX", TestCommand("-run", "TestX").String())
}
