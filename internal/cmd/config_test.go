package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	toml "github.com/pelletier/go-toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v3"
)

func TestConfigInitFormats(t *testing.T) {
	type testCase struct {
		name      string
		format    string
		unmarshal func([]byte, any) error
	}

	testCases := []testCase{
		{name: "json", format: "json", unmarshal: json.Unmarshal},
		{name: "yaml", format: "yaml", unmarshal: func(b []byte, v any) error { return yaml.Unmarshal(b, v) }},
		{name: "toml", format: "toml", unmarshal: func(b []byte, v any) error {
			tree, err := toml.LoadBytes(b)
			if err != nil {
				return err
			}
			*(v.(*map[string]any)) = tree.ToMap()
			return nil
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "bridge."+tc.format)
			c := &ConfigInit{Command: "bridge", Format: tc.format, Output: dest}
			require.NoError(t, c.Run())

			data, err := os.ReadFile(dest)
			require.NoError(t, err)

			var root map[string]any
			require.NoError(t, tc.unmarshal(data, &root))

			br, ok := root["bridge"].(map[string]any)
			require.True(t, ok, "missing bridge section")
			assert.Equal(t, "1ms", br["pollInterval"])

			stream, ok := root["stream"].(map[string]any)
			require.True(t, ok, "missing stream section")
			assert.Equal(t, true, stream["enabled"])
			assert.Equal(t, "127.0.0.1:41522", stream["addr"])
			assert.Contains(t, stream, "password")

			assert.Equal(t, false, root["hidraw"])
		})
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "bridge.json")
	require.NoError(t, os.WriteFile(dest, []byte("{}"), 0o644))

	c := &ConfigInit{Command: "bridge", Format: "json", Output: dest}
	assert.ErrorContains(t, c.Run(), "destination exists")

	c.Force = true
	assert.NoError(t, c.Run())
}

func TestConfigInitUnknownFormat(t *testing.T) {
	c := &ConfigInit{Command: "bridge", Format: "ini"}
	assert.Error(t, c.Run())
}
