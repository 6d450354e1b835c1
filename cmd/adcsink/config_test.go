package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	pathname := filepath.Join(t.TempDir(), "adcsink.config")
	require.Nil(t, os.WriteFile(pathname, []byte(content), 0600))
	return pathname
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		c, err := loadConfig(filepath.Join(t.TempDir(), "nope.config"))
		require.Nil(t, err)
		c.applyDefaultsForMissingProperties()
		assert.Equal(t, "0.0.0.0:8000", c.listenAddress())
		assert.Equal(t, "/adc_samples", c.Path)
		assert.Equal(t, "adc.raw", c.OutputFile)
		assert.False(t, c.Strict)
		assert.Nil(t, c.validate())
	})
	t.Run("relaxed json", func(t *testing.T) {
		c, err := loadConfig(writeConfig(t, `{
			port: 8001
			output_file: "$HOME/adc/second.raw"
			strict: true
			mirror: {
				type: "s3"
				bucket: "adc-samples"
				rate: 2.5
			}
		}`))
		require.Nil(t, err)
		c.applyDefaultsForMissingProperties()
		assert.Equal(t, "0.0.0.0:8001", c.listenAddress())
		assert.Equal(t, "$HOME/adc/second.raw", c.OutputFile)
		assert.True(t, c.Strict)
		assert.Equal(t, "s3", c.Mirror.Type)
		assert.Equal(t, 2.5, c.Mirror.Rate)
		assert.Nil(t, c.validate())
	})
	t.Run("ipv6 bind address", func(t *testing.T) {
		c := &config{BindAddress: "::1"}
		c.applyDefaultsForMissingProperties()
		assert.Equal(t, "[::1]:8000", c.listenAddress())
	})
	t.Run("malformed file is an error", func(t *testing.T) {
		_, err := loadConfig(writeConfig(t, `{port: `))
		assert.NotNil(t, err)
	})
}

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*config)
		valid  bool
	}{
		{"defaults", func(*config) {}, true},
		{"port out of range", func(c *config) { c.Port = 70000 }, false},
		{"negative body limit", func(c *config) { c.MaxBodyBytes = -1 }, false},
		{"negative mirror rate", func(c *config) { c.Mirror.Type = "remote"; c.Mirror.Address = "x:1"; c.Mirror.Rate = -1 }, false},
		{"unknown mirror", func(c *config) { c.Mirror.Type = "dynamodb" }, false},
		{"bolt mirror without path", func(c *config) { c.Mirror.Type = "bolt" }, false},
		{"bolt mirror", func(c *config) { c.Mirror.Type = "bolt"; c.Mirror.Path = "mirror.db" }, true},
		{"remote mirror without address", func(c *config) { c.Mirror.Type = "remote" }, false},
		{"s3 mirror without bucket", func(c *config) { c.Mirror.Type = "s3" }, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := &config{}
			c.applyDefaultsForMissingProperties()
			tc.modify(c)
			err := c.validate()
			if tc.valid {
				assert.Nil(t, err)
			} else {
				assert.NotNil(t, err)
			}
		})
	}
}
