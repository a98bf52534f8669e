package cmd

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alia5/keybridge/macro"
)

func TestMacroChangeLogger(t *testing.T) {
	var buf bytes.Buffer
	log := macroChangeLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	log([]macro.Macro{{ID: "a"}, {ID: "b"}})
	out := buf.String()
	assert.Contains(t, out, "macro set changed")
	assert.Contains(t, out, "count=2")
	assert.NotContains(t, out, "reloaded")
}
