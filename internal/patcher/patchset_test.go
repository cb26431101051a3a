package patcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatchSetOrder(t *testing.T) {
	ps := NewPatchSet("https://example.com")
	keys := make([]string, 0, len(ps))
	for _, sub := range ps {
		keys = append(keys, sub.Search)
	}
	assert.Equal(t, []string{
		"openProductUpgradePage",
		"UPGRADE_LABEL",
		"UPGRADE_TOOLTIP_TEXT",
		`<script type="text/javascript" src="/zlink.bundle.js"></script>`,
	}, keys)
}

func TestPatchSetApply(t *testing.T) {
	ps := NewPatchSet("https://example.com/ezb")
	out, unmatched := ps.Apply(testMarkup)

	assert.Empty(t, unmatched)
	for _, sub := range ps {
		assert.NotContains(t, out, sub.Search)
	}
	assert.Equal(t, 1, strings.Count(out, "'EZBlocker'"))
	assert.Equal(t, 1, strings.Count(out, "'Open EZBlocker Website'"))
	assert.Equal(t, 1, strings.Count(out, bootstrapMarkup("https://example.com/ezb")))
	// once from the button, once from the bootstrap's own definition
	assert.Equal(t, 2, strings.Count(out, "openWebsite"))
	assert.Contains(t, out, `onclick="openWebsite()"`)
	assert.Contains(t, out, "window.open('https://example.com/ezb')")
}

func TestPatchSetApplyReplacesAllOccurrences(t *testing.T) {
	ps := PatchSet{{Search: "a", Replace: "b"}}
	out, unmatched := ps.Apply("a-a-a")
	assert.Equal(t, "b-b-b", out)
	assert.Empty(t, unmatched)
}

func TestPatchSetApplyIsOrderSensitive(t *testing.T) {
	ps := PatchSet{
		{Search: "foo", Replace: "bar"},
		{Search: "bar", Replace: "baz"},
	}
	out, _ := ps.Apply("foo bar")
	assert.Equal(t, "baz baz", out)
}

func TestPatchSetApplyReportsUnmatched(t *testing.T) {
	ps := NewPatchSet("https://example.com")
	out, unmatched := ps.Apply("<html>UPGRADE_LABEL</html>")
	assert.Equal(t, "<html>'EZBlocker'</html>", out)
	assert.Len(t, unmatched, 3)
	assert.NotContains(t, unmatched, "UPGRADE_LABEL")
}

func TestWorkerScript(t *testing.T) {
	script := WorkerScript(19691)
	assert.Contains(t, script, "'http://localhost:19691/'+e")
	assert.Contains(t, script, "postMessage('ready')},300)")
	assert.NotContains(t, script, "{PORT}")
	assert.False(t, strings.HasSuffix(script, "\n"))

	assert.Contains(t, WorkerScript(8080), "http://localhost:8080/")
}

func TestBootstrapMarkup(t *testing.T) {
	markup := bootstrapMarkup("https://example.com")
	assert.True(t, strings.HasPrefix(markup, "<script src=/zlink.bundle.js></script>"))
	assert.Contains(t, markup, "window.open('https://example.com')")
	assert.NotContains(t, markup, "{WEBSITE}")
}
