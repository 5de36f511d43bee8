package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autovid/autovid-editor/internal/api"
	"github.com/autovid/autovid-editor/internal/config"
	"github.com/autovid/autovid-editor/internal/db"
	"github.com/autovid/autovid-editor/internal/project"
	"github.com/autovid/autovid-editor/internal/timeline"
)

// isolateEnv points config loading at an empty home directory.
func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		config.EnvConfigFile, config.EnvPort, config.EnvLogLevel, config.EnvDataDir,
		config.EnvCreditsURL, config.EnvCreditsToken, config.EnvUploadMaxSeconds,
		config.EnvExportPollSeconds, config.EnvAllowedOrigins,
	} {
		t.Setenv(key, "")
	}
	return home
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeTimeline stores a document with one video track holding two
// overlapping file clips and a text track.
func writeTimeline(t *testing.T, mutate func(*timeline.Engine, *timeline.Timeline, string) *timeline.Timeline) string {
	t.Helper()

	e := timeline.NewEngine()
	tl := e.CreateTimeline("Launch Cut")
	tl, video := e.AddTrack(tl, timeline.MediaVideo, "Main")
	tl, _, err := e.AddClip(tl, video.ID, timeline.ClipDraft{
		Name: "intro", EndTime: 5,
		Source: timeline.Source{Kind: timeline.SourceFile, Src: "/media/intro.mp4"},
	})
	require.NoError(t, err)
	tl, _, err = e.AddClip(tl, video.ID, timeline.ClipDraft{
		Name: "demo", StartTime: 3, EndTime: 9,
		Source: timeline.Source{Kind: timeline.SourceFile, Src: "/media/demo.mp4"},
	})
	require.NoError(t, err)

	tl, text := e.AddTrack(tl, timeline.MediaText, "")
	tl, _, err = e.AddClip(tl, text.ID, timeline.ClipDraft{
		Type: timeline.MediaText, Name: "caption", EndTime: 2,
		Source: timeline.Source{Kind: timeline.SourceText, Content: "Hello"},
	})
	require.NoError(t, err)

	if mutate != nil {
		tl = mutate(e, tl, video.ID)
	}

	doc, err := timeline.ToJSON(tl)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "timeline.json")
	require.NoError(t, os.WriteFile(path, doc, 0644))
	return path
}

func TestConfigInitAndShow(t *testing.T) {
	isolateEnv(t)

	target := filepath.Join(t.TempDir(), "autovid", "config.toml")
	out, _, err := runCLI(t, "config", "init", "--path", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote sample configuration")
	_, err = os.Stat(target)
	require.NoError(t, err)

	_, _, err = runCLI(t, "config", "init", "--path", target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = runCLI(t, "config", "init", "--path", target, "--overwrite")
	require.NoError(t, err)

	out, _, err = runCLI(t, "--config", target, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, target)
	assert.Contains(t, out, "8787")
	assert.Contains(t, out, "loopback only")
}

func TestConfigShowRejectsBadEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv(config.EnvPort, "not-a-port")

	_, _, err := runCLI(t, "config", "show")
	require.Error(t, err)
}

func TestInspect(t *testing.T) {
	isolateEnv(t)
	path := writeTimeline(t, nil)

	out, _, err := runCLI(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Launch Cut")
	assert.Contains(t, out, "3 clips")
	assert.Contains(t, out, "Video")
	assert.Contains(t, out, "/media/demo.mp4")
	assert.Contains(t, out, `"Hello"`)
}

func TestInspectRejectsNonTimeline(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tracks": 3}`), 0644))

	_, _, err := runCLI(t, "inspect", path)
	var perr *timeline.ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestValidate(t *testing.T) {
	isolateEnv(t)

	out, _, err := runCLI(t, "validate", writeTimeline(t, nil))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "valid: Launch Cut"), out)

	broken := writeTimeline(t, func(e *timeline.Engine, tl *timeline.Timeline, trackID string) *timeline.Timeline {
		tl, _, err := e.AddClip(tl, trackID, timeline.ClipDraft{Name: "backwards", StartTime: 8, EndTime: 7})
		require.NoError(t, err)
		return tl
	})
	out, _, err = runCLI(t, "validate", broken)
	assert.True(t, errors.Is(err, errFindings))
	assert.True(t, strings.HasPrefix(out, "invalid: Launch Cut"), out)
	assert.Contains(t, out, "  - ")
}

func TestEDL(t *testing.T) {
	isolateEnv(t)
	path := writeTimeline(t, nil)
	target := filepath.Join(t.TempDir(), "cut.edl")

	_, stderr, err := runCLI(t, "edl", path, "-o", target, "--fps", "25")
	require.NoError(t, err)
	assert.Contains(t, stderr, "skipped caption")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	edl := string(data)
	assert.True(t, strings.HasPrefix(edl, "TITLE: Launch Cut\nFCM: NON-DROP FRAME\n"))
	assert.Contains(t, edl, "001  AX       V     C        00:00:00:00 00:00:05:00 00:00:00:00 00:00:05:00")
	assert.Contains(t, edl, "* MEDIA PATH:  /media/demo.mp4")
}

func TestEDLUsesConfiguredFPS(t *testing.T) {
	isolateEnv(t)
	path := writeTimeline(t, nil)

	out, _, err := runCLI(t, "edl", path)
	require.NoError(t, err)
	assert.Contains(t, out, "TITLE: Launch Cut")
}

func TestResolveOverlaps(t *testing.T) {
	isolateEnv(t)
	path := writeTimeline(t, nil)
	target := filepath.Join(t.TempDir(), "resolved.json")

	_, stderr, err := runCLI(t, "resolve-overlaps", path, "-o", target)
	require.NoError(t, err)
	assert.Contains(t, stderr, "trimmed 1 clips, removed 0")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	tl, err := timeline.FromJSON(data)
	require.NoError(t, err)

	for _, c := range tl.Clips() {
		if c.Name == "demo" {
			assert.Equal(t, 5.0, c.StartTime)
			assert.Equal(t, 2.0, c.TrimStart)
		}
	}
}

func TestEnsureAuthToken(t *testing.T) {
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	defer database.Close()

	repo := project.NewRepository(database.Conn())
	ctx := context.Background()

	token, err := ensureAuthToken(ctx, repo)
	require.NoError(t, err)
	assert.Len(t, token, 64)

	stored, err := repo.GetConfig(ctx, api.AuthTokenKey)
	require.NoError(t, err)
	assert.Equal(t, token, stored)

	again, err := ensureAuthToken(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, token, again)
}
