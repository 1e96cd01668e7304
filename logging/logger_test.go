package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrip(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"Repository {cyan}addons/foo{white} fast-forwarded.", "Repository addons/foo fast-forwarded."},
		{"{yellow}3{white} files", "3 files"},
		{"{225}g{217}s{white}", "gs"},
		{"{unknown} stays", "{unknown} stays"},
		{"{{red}literal", "{red}literal"},
		{"{{{red}", "{{red}"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Strip(tt.in))
	}
}

func TestEscape(t *testing.T) {
	for _, in := range []string{"plain", "fix {red}colors", "{{red}", "{cyan}{225}"} {
		assert.Equal(t, in, Strip(Escape(in)), in)
	}
	assert.Equal(t, "{{red}x", Escape("{red}x"))
}

func TestPastelize(t *testing.T) {
	out := Pastelize("ab c")
	assert.Equal(t, "{225}a{217}b {223}c{white}", out)
	assert.Equal(t, "ab c", Strip(out))
}

func TestConsolePlain(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Writer: &buf, Color: ColorNever})

	log.Info("Checked out {cyan}%s{white} in {yellow}%s{white}.", "main", "addons/foo")
	log.Success("done")
	log.With("task", "abc").Error("Failed: {red}%s", "boom")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "[gitsync] Checked out main in addons/foo.", lines[0])
	assert.Equal(t, "[gitsync] done", lines[1])
	assert.Equal(t, "[gitsync] Failed: boom task=abc", lines[2])
}

func TestConsoleLiteralPercent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Writer: &buf, Color: ColorNever, Prefix: "[git]"})

	log.Info("[====      ] 40%")
	assert.Equal(t, "[git] [====      ] 40%\n", buf.String())
}

func TestConsoleLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Writer: &buf, Color: ColorNever, Level: LevelWarn})

	log.Info("hidden")
	log.Success("hidden too")
	log.Warn("shown")
	log.Error("shown too")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "shown too")
}

func TestConsoleColor(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Writer: &buf, Color: ColorAlways})

	log.Info("Repository {cyan}%s{white} up to date.", "foo")

	out := buf.String()
	assert.Contains(t, out, "\x1b[")
	assert.NotContains(t, out, "{cyan}")
	assert.Contains(t, out, "foo")
}

func TestMarkupInArgsIsLiteral(t *testing.T) {
	t.Run("console", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(Options{Writer: &buf, Color: ColorNever})

		log.Info("Committed {yellow}%s{white}: %v", "fix {red}colors", errors.New("{cyan}boom"))
		assert.Equal(t, "[gitsync] Committed fix {red}colors: {cyan}boom\n", buf.String())
	})

	t.Run("color", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(Options{Writer: &buf, Color: ColorAlways})

		log.Info("Committed %s", "{red}colors")
		assert.Contains(t, buf.String(), "{red}colors")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(Options{Writer: &buf, Format: FormatJSON})

		log.Info("Committed {yellow}%s", "{red}colors")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "Committed {red}colors", rec["msg"])
	})
}

func TestConsoleGroup(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(Options{Writer: &buf, Color: ColorNever, Level: LevelInfo, Prefix: "[x]"})
	l := slog.New(h).WithGroup("op").With("name", "pull")

	l.Info("msg", "path", "a")
	assert.Equal(t, "[x] msg op.name=pull op.path=a\n", buf.String())
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Writer: &buf, Format: FormatJSON})

	log.With("task", "t1").Success("Added {yellow}%s{white} to {cyan}%s{white}.", "a.txt", "repo")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "Added a.txt to repo.", rec["msg"])
	assert.Equal(t, "SUCCESS", rec["level"])
	assert.Equal(t, "t1", rec["task"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelInfo, ParseLevel(""))
	assert.Equal(t, LevelInfo, ParseLevel("info"))
	assert.Equal(t, LevelSuccess, ParseLevel("Success"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
}

func TestNop(t *testing.T) {
	log := Nop()
	assert.NotPanics(t, func() {
		log.Info("x")
		log.With("a", 1).Error("y %d", 2)
	})
}
