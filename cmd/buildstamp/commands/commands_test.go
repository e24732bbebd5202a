package commands

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/buildstamp/internal/build"
	"git.home.luguber.info/inful/buildstamp/internal/config"
	"git.home.luguber.info/inful/buildstamp/internal/foundation/errors"
	"git.home.luguber.info/inful/buildstamp/internal/metrics"
	"git.home.luguber.info/inful/buildstamp/internal/shell/shelltest"
	helpers "git.home.luguber.info/inful/buildstamp/internal/testutil/testutils"
)

const derivedVersion = "v0.2.4-rc.4.gabc1234"

func httpEchoTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	helpers.WriteTree(t, dir, map[string]string{
		"go.mod":             "module github.com/hashicorp/http-echo\n\ngo 1.24\n",
		"cmd/server/main.go": "package main\n",
		"cmd/client/main.go": "package main\n",
	})
	return dir
}

func scriptedGit(dir string) *shelltest.Runner {
	return shelltest.New().
		On("git rev-parse --is-shallow-repository", shelltest.Response{Stdout: "false\n"}).
		On("git describe --always --tags --long --match v[0-9]*.[0-9]*.[0-9]* --exclude v*-* --exclude v*+*", shelltest.Response{Stdout: "v0.2.3-4-gabc1234\n"}).
		On("git rev-parse --abbrev-ref HEAD", shelltest.Response{Stdout: "main\n"}).
		On("git rev-list --count HEAD", shelltest.Response{Stdout: "42\n"}).
		On("git rev-parse HEAD", shelltest.Response{Stdout: "abc1234def5678\n"}).
		On("git remote get-url origin", shelltest.Response{Stdout: "git@github.com:hashicorp/http-echo.git\n"}).
		On("git rev-parse --show-toplevel", shelltest.Response{Stdout: dir + "\n"}).
		On("git status --porcelain=2 --untracked-files=no", shelltest.Response{})
}

func newGlobal(t *testing.T, dir string, runner *shelltest.Runner) (*Global, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	return &Global{
		Context:  t.Context(),
		Dir:      dir,
		Config:   config.Default(),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Runner:   runner,
		Recorder: metrics.NoopRecorder{},
		Stdout:   out,
	}, out
}

func TestShallowCloneFetchedOncePerInvocation(t *testing.T) {
	dir := httpEchoTree(t)
	runner := shelltest.New().
		On("git rev-parse --is-shallow-repository", shelltest.Response{Stdout: "true\n"}).
		On("git fetch --prune --tags --unshallow", shelltest.Response{ExitCode: 128, Stderr: "fatal: unable to access remote"})
	g, _ := newGlobal(t, dir, runner)

	_, err := g.Project()
	require.NoError(t, err)
	// watch-run resolves again on every trigger
	for range 3 {
		_, err := g.Resolve(t.Context())
		require.NoError(t, err)
	}

	assert.Equal(t, 4, runner.Count("git rev-parse --is-shallow-repository"))
	assert.Equal(t, 1, runner.Count("git fetch --prune --tags --unshallow"))
}

func TestInfo(t *testing.T) {
	dir := httpEchoTree(t)
	g, out := newGlobal(t, dir, scriptedGit(dir))

	require.NoError(t, (&InfoCmd{}).Run(g))

	assert.Equal(t, ""+
		"Module:      github.com/hashicorp/http-echo\n"+
		"Version:     "+derivedVersion+"\n"+
		"Source:      https://github.com/hashicorp/http-echo/tree/abc1234def5678\n"+
		"Image name:  http-echo\n"+
		"Main target: ./bin/client\n"+
		"Additional targets:\n"+
		"  - ./bin/server\n",
		out.String())
}

func TestInfoVerbosePrintsConfiguration(t *testing.T) {
	dir := httpEchoTree(t)
	g, out := newGlobal(t, dir, scriptedGit(dir))
	g.Verbose = true

	require.NoError(t, (&InfoCmd{}).Run(g))
	assert.Contains(t, out.String(), "\nConfiguration:\n")
	assert.Contains(t, out.String(), "bin_dir: ./bin")
}

func TestInfoWithoutTargets(t *testing.T) {
	dir := t.TempDir()
	helpers.WriteTree(t, dir, map[string]string{"go.mod": "module example.com/lib\n"})
	g, out := newGlobal(t, dir, scriptedGit(dir))

	require.NoError(t, (&InfoCmd{}).Run(g))
	assert.Contains(t, out.String(), "Main target: (none)\n")
	assert.NotContains(t, out.String(), "Additional targets")
}

func TestVersion(t *testing.T) {
	dir := httpEchoTree(t)
	g, out := newGlobal(t, dir, scriptedGit(dir))

	require.NoError(t, (&VersionCmd{}).Run(g))
	assert.Equal(t, derivedVersion+"\n", out.String())
}

func TestProjectIsResolvedOnce(t *testing.T) {
	dir := httpEchoTree(t)
	runner := scriptedGit(dir)
	g, _ := newGlobal(t, dir, runner)

	first, err := g.Project()
	require.NoError(t, err)
	second, err := g.Project()
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, runner.Count("git rev-parse HEAD"))
}

func scriptBuilds(t *testing.T, g *Global, runner *shelltest.Runner, resp shelltest.Response) []build.Command {
	t.Helper()
	p, err := g.Project()
	require.NoError(t, err)
	cmds := p.Plan.Commands(build.ActionBuild, g.Config.BinDir)
	for _, c := range cmds {
		runner.On(shelltest.Line(c.Shell()), resp)
	}
	return cmds
}

func TestBuildCompilesEveryTarget(t *testing.T) {
	dir := httpEchoTree(t)
	runner := scriptedGit(dir)
	g, out := newGlobal(t, dir, runner)
	cmds := scriptBuilds(t, g, runner, shelltest.Response{})
	require.Len(t, cmds, 2)

	require.NoError(t, (&BuildCmd{}).Run(g))

	helpers.NewFileAssertions(t, dir).AssertDirExists("bin")
	for _, c := range cmds {
		assert.Equal(t, 1, runner.Count(shelltest.Line(c.Shell())))
		assert.Contains(t, out.String(), "Building "+c.Target+" ...\n"+c.String()+"\n")
	}
	assert.Contains(t, cmds[0].String(), `-ldflags "-X github.com/hashicorp/http-echo/pkg/buildinfo.Version=`+derivedVersion)
}

func TestBuildSelectedTarget(t *testing.T) {
	dir := httpEchoTree(t)
	runner := scriptedGit(dir)
	g, _ := newGlobal(t, dir, runner)
	cmds := scriptBuilds(t, g, runner, shelltest.Response{})

	require.NoError(t, (&BuildCmd{Targets: []string{"server"}}).Run(g))

	for _, c := range cmds {
		want := 0
		if c.Target == "server" {
			want = 1
		}
		assert.Equal(t, want, runner.Count(shelltest.Line(c.Shell())), c.Target)
	}
}

func TestBuildUnknownTarget(t *testing.T) {
	dir := httpEchoTree(t)
	g, _ := newGlobal(t, dir, scriptedGit(dir))

	err := (&BuildCmd{Targets: []string{"proxy"}}).Run(g)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestBuildFailurePropagatesExitCode(t *testing.T) {
	dir := httpEchoTree(t)
	runner := scriptedGit(dir)
	g, _ := newGlobal(t, dir, runner)
	scriptBuilds(t, g, runner, shelltest.Response{ExitCode: 2, Stderr: "syntax error"})

	err := (&BuildCmd{}).Run(g)
	require.Error(t, err)
	assert.Equal(t, 2, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestRunPassesArguments(t *testing.T) {
	dir := httpEchoTree(t)
	runner := scriptedGit(dir)
	g, out := newGlobal(t, dir, runner)
	p, err := g.Project()
	require.NoError(t, err)
	cmd, ok := p.Plan.Main(build.ActionRun, g.Config.BinDir)
	require.True(t, ok)
	runner.On(shelltest.Line(cmd.Shell())+" -text=hello", shelltest.Response{Stdout: "hello\n"})

	require.NoError(t, (&RunCmd{Args: []string{"-text=hello"}}).Run(g))
	assert.Equal(t, "client", cmd.Target)
	assert.Equal(t, cmd.String()+"\nhello\n", out.String())
}

func TestRunWithoutTargets(t *testing.T) {
	dir := t.TempDir()
	helpers.WriteTree(t, dir, map[string]string{"go.mod": "module example.com/lib\n"})
	g, _ := newGlobal(t, dir, scriptedGit(dir))

	err := (&RunCmd{}).Run(g)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	assert.Equal(t, 2, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestTestAppendsExtraArguments(t *testing.T) {
	dir := httpEchoTree(t)
	runner := shelltest.New().On("go test -cover -race ./... -run TestX", shelltest.Response{Stdout: "ok\n"})
	g, out := newGlobal(t, dir, runner)

	require.NoError(t, (&TestCmd{Args: []string{"-run", "TestX"}}).Run(g))
	assert.Equal(t, "go test -cover -race ./... -run TestX\nok\n", out.String())
	assert.Equal(t, dir, runner.Commands()[0].Dir)
}

func TestClean(t *testing.T) {
	dir := httpEchoTree(t)
	helpers.WriteTree(t, dir, map[string]string{"bin/client": "binary"})
	g, _ := newGlobal(t, dir, shelltest.New())

	require.NoError(t, (&CleanCmd{}).Run(g))
	helpers.NewFileAssertions(t, dir).AssertNotExists("bin")

	// Cleaning twice is fine.
	require.NoError(t, (&CleanCmd{}).Run(g))
}

func TestBuildImageDryRun(t *testing.T) {
	t.Setenv("GITHUB_ACTOR", "")
	t.Setenv("GITHUB_REPOSITORY", "")
	t.Setenv("GITHUB_TOKEN", "")
	dir := httpEchoTree(t)
	runner := scriptedGit(dir)
	g, out := newGlobal(t, dir, runner)
	g.Config.Image.Registries = []string{"github", "registry.example.com/team"}

	require.NoError(t, (&BuildImageCmd{DryRun: true}).Run(g))

	s := out.String()
	assert.Contains(t, s, "|docker build -t http-echo:"+derivedVersion+" -t registry.example.com/team/http-echo:"+derivedVersion+" -f - .\n")
	assert.Contains(t, s, "FROM golang:1.24-alpine AS builder\n")
	assert.Contains(t, s, "-o ./bin/client ./cmd/client/...\n")
	assert.Contains(t, s, "-o ./bin/server ./cmd/server/...\n")
	assert.Contains(t, s, "ENTRYPOINT [\"/bin/client\"]\n")
	assert.Contains(t, s, "docker push registry.example.com/team/http-echo:"+derivedVersion+"\n")
	for _, call := range runner.Calls() {
		assert.False(t, strings.HasPrefix(call, "docker"), call)
	}
}

const changelog = "# v0.2.4\n\n- Fix shutdown\n\n# v0.2.3\n- Initial release\n"

func TestReleaseNotesForDerivedVersion(t *testing.T) {
	dir := httpEchoTree(t)
	helpers.WriteTree(t, dir, map[string]string{"CHANGELOG.md": changelog})
	g, out := newGlobal(t, dir, scriptedGit(dir))

	cmd := &ReleaseNotesCmd{Prefix: "http-echo", Input: "CHANGELOG.md"}
	require.NoError(t, cmd.Run(g))
	assert.Equal(t, "http-echo "+derivedVersion+"\n\n- Fix shutdown\n\n", out.String())
}

func TestReleaseNotesToFile(t *testing.T) {
	dir := httpEchoTree(t)
	helpers.WriteTree(t, dir, map[string]string{
		"CHANGELOG.md":  changelog,
		"checksums.txt": "deadbeef  http-echo.tar.gz\n",
	})
	runner := shelltest.New()
	g, out := newGlobal(t, dir, runner)

	cmd := &ReleaseNotesCmd{Release: "v0.2.3", Input: "CHANGELOG.md", Checksums: "checksums.txt", Output: "notes.md"}
	require.NoError(t, cmd.Run(g))

	assert.Empty(t, out.String())
	assert.Empty(t, runner.Calls(), "an explicit version needs no repository")
	helpers.NewFileAssertions(t, dir).
		AssertFileContains("notes.md", "- Initial release\n\n## Checksums\n\n```\ndeadbeef  http-echo.tar.gz\n```\n")
}

func TestReleaseNotesMissingChangelog(t *testing.T) {
	g, _ := newGlobal(t, t.TempDir(), shelltest.New())
	err := (&ReleaseNotesCmd{Release: "v1.0.0", Input: "CHANGELOG.md"}).Run(g)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestWatchTestStopsWithContext(t *testing.T) {
	dir := httpEchoTree(t)
	g, _ := newGlobal(t, dir, shelltest.New())
	g.Config.Watch.Mode = config.WatchModePoll
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	g.Context = ctx

	require.NoError(t, (&WatchTestCmd{}).Run(g))
}

func TestAfterApply(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	// Registered for restore, then removed so the .env file can provide it.
	t.Setenv("BUILDSTAMP_TEST_REGISTRY", "")
	require.NoError(t, os.Unsetenv("BUILDSTAMP_TEST_REGISTRY"))

	dir := t.TempDir()
	helpers.WriteTree(t, dir, map[string]string{
		".env":         "BUILDSTAMP_TEST_REGISTRY=registry.example.com/team\n",
		"release.yaml": "bin_dir: ./out\nimage:\n  registries: [\"${BUILDSTAMP_TEST_REGISTRY}\"]\nlog:\n  level: loud\n",
	})
	metricsFile := filepath.Join(dir, "metrics", "buildstamp.prom")

	cli := &CLI{Config: "release.yaml", Dir: dir, MetricsFile: metricsFile}
	g := &Global{}
	require.NoError(t, cli.AfterApply(g))

	assert.Equal(t, dir, g.Dir)
	assert.Equal(t, "./out", g.Config.BinDir)
	assert.Equal(t, []string{"registry.example.com/team"}, g.Config.Image.Registries)
	assert.NotEmpty(t, g.Config.Warnings, "unknown log level falls back with a warning")
	assert.IsType(t, &metrics.PrometheusRecorder{}, g.Recorder)
	assert.NotNil(t, g.Runner)
	assert.NotNil(t, g.Context)

	g.Recorder.IncCommandResult("build", metrics.ResultSuccess)
	require.NoError(t, g.Finish())
	helpers.NewFileAssertions(t, dir).
		AssertFileContains("metrics/buildstamp.prom", `buildstamp_command_results_total{action="build",result="success"} 1`)
}

func TestAfterApplyInvalidConfig(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	helpers.WriteTree(t, dir, map[string]string{".buildstamp.yaml": "git:\n  backend: svn\n"})

	err := (&CLI{Config: ".buildstamp.yaml", Dir: dir}).AfterApply(&Global{})
	require.Error(t, err)
	assert.Equal(t, 7, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestFinishWithoutMetricsFile(t *testing.T) {
	assert.NoError(t, (&Global{}).Finish())
}
