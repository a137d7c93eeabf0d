package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".fcsync.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `
[options]
days_to_sync = 14
ignore_event_if_title_starts_with = "!"
verbosity_level = 1

[google]
client_id = "id"
client_secret = "secret"

[caldav.fastmail]
name = "Fastmail"
server_url = "https://caldav.example.com"
username = "u"
password = "p"
read_only = true

[[parent]]
entity_id = "parents"
provider = "google"
account = "family"
calendar_id = "family@group.calendar.google.com"

[[child]]
entity_id = "kid-a"
provider = "caldav"
server = "fastmail"
calendar_id = "https://caldav.example.com/calendars/kid-a/"
keywords = ["soccer", "dad"]

[[child]]
entity_id = "kid-b"
provider = "google"
account = "family"
calendar_id = "kidb@group.calendar.google.com"
keywords = []
copy_all_from = "parents"
`

func TestReadConfig(t *testing.T) {
	config, err := readConfig(writeConfigFile(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, 14, config.Options.DaysToSync)
	assert.Equal(t, "!", config.Options.IgnoreEventIfTitleStartsWith)
	assert.True(t, config.CalDAVs["fastmail"].ReadOnly)

	assert.Equal(t, []string{"parents"}, config.parentIDs())
	assert.Equal(t, []ChildRule{
		{EntityID: "kid-a", Keywords: []string{"soccer", "dad"}},
		{EntityID: "kid-b", Keywords: []string{}, CopyAllFrom: "parents"},
	}, config.childRules())
	assert.Equal(t, SyncOptions{DaysToSync: 14, IgnorePrefix: "!"}, config.syncOptions())
}

func TestReadConfigDefaultDaysToSync(t *testing.T) {
	config, err := readConfig(writeConfigFile(t, `
[google]
client_id = "id"
client_secret = "secret"

[[parent]]
entity_id = "parents"
provider = "google"
account = "family"
calendar_id = "family@example.com"

[[child]]
entity_id = "kid-a"
provider = "google"
account = "family"
calendar_id = "kida@example.com"
keywords = ["soccer"]
`))
	require.NoError(t, err)
	assert.Equal(t, defaultDaysToSync, config.Options.DaysToSync)
}

func TestReadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{
			name: "negative days_to_sync",
			config: `
[options]
days_to_sync = -1
[[parent]]
entity_id = "p"
provider = "google"
account = "a"
calendar_id = "c"
[[child]]
entity_id = "k"
provider = "google"
account = "a"
calendar_id = "c2"
keywords = ["x"]
`,
			wantErr: "days_to_sync must be positive",
		},
		{
			name:    "no calendars",
			config:  `[options]`,
			wantErr: "at least one parent and one child",
		},
		{
			name: "duplicate entity ids",
			config: `
[[parent]]
entity_id = "same"
provider = "google"
account = "a"
calendar_id = "c"
[[child]]
entity_id = "same"
provider = "google"
account = "a"
calendar_id = "c2"
keywords = ["x"]
`,
			wantErr: "duplicate entity_id",
		},
		{
			name: "copy_all_from must name a parent",
			config: `
[[parent]]
entity_id = "p"
provider = "google"
account = "a"
calendar_id = "c"
[[child]]
entity_id = "k"
provider = "google"
account = "a"
calendar_id = "c2"
keywords = []
copy_all_from = "nonexistent"
`,
			wantErr: "not a configured parent",
		},
		{
			name: "unknown provider",
			config: `
[[parent]]
entity_id = "p"
provider = "exchange"
account = "a"
calendar_id = "c"
[[child]]
entity_id = "k"
provider = "google"
account = "a"
calendar_id = "c2"
keywords = ["x"]
`,
			wantErr: "unsupported provider type",
		},
		{
			name: "caldav server not configured",
			config: `
[[parent]]
entity_id = "p"
provider = "caldav"
server = "missing"
calendar_id = "c"
[[child]]
entity_id = "k"
provider = "google"
account = "a"
calendar_id = "c2"
keywords = ["x"]
`,
			wantErr: "not found in configuration",
		},
		{
			name: "child without rule",
			config: `
[[parent]]
entity_id = "p"
provider = "google"
account = "a"
calendar_id = "c"
[[child]]
entity_id = "k"
provider = "google"
account = "a"
calendar_id = "c2"
keywords = []
`,
			wantErr: "needs keywords or copy_all_from",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readConfig(writeConfigFile(t, tt.config))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
