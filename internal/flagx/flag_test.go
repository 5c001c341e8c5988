package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "separate value",
			args:         []string{"-c", "conf.json", "-a", ":5000"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c", "conf.json"},
		},
		{
			name:         "equals form",
			args:         []string{"--config=alt.json", "-a", ":5000"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"--config=alt.json"},
		},
		{
			name:         "unknown flags dropped",
			args:         []string{"-x", "1", "--y=2", "positional"},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
		{
			name:         "trailing flag without value",
			args:         []string{"-s"},
			allowedFlags: []string{"-s"},
			want:         []string{"-s"},
		},
		{
			name:         "next flag is not a value",
			args:         []string{"-s", "-k", "12"},
			allowedFlags: []string{"-s", "-k"},
			want:         []string{"-s", "-k", "12"},
		},
		{
			name:         "order and repetition preserved",
			args:         []string{"-d", "one", "-a", ":1", "-d", "two"},
			allowedFlags: []string{"-d"},
			want:         []string{"-d", "one", "-d", "two"},
		},
		{
			name:         "empty",
			args:         nil,
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestConfigFile(t *testing.T) {
	assert.Equal(t, "/etc/recipehub.json", ConfigFile([]string{"-c", "/etc/recipehub.json"}))
	assert.Equal(t, "/tmp/long.json", ConfigFile([]string{"-a", ":5000", "-config", "/tmp/long.json"}))
	assert.Equal(t, "/tmp/2.json", ConfigFile([]string{"-c", "/tmp/1.json", "-config", "/tmp/2.json"}))
	assert.Empty(t, ConfigFile([]string{"-s", "secret"}))
}
