package cron

import (
	"testing"

	"github.com/arabah/arabah/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAvailable = map[string]bool{
	"home":          true,
	"categories":    true,
	"favorites":     true,
	"notifications": true,
}

func TestParseTriggerSpecs_ValidSingleTrigger(t *testing.T) {
	specs, err := ParseTriggerSpecs("home:*/15 * * * *", testAvailable)
	require.NoError(t, err)
	require.Len(t, specs, 1)

	assert.Equal(t, []string{"home"}, specs[0].Operations)
	assert.Equal(t, "*/15 * * * *", specs[0].CronSpec)
}

func TestParseTriggerSpecs_ValidMultipleTriggers(t *testing.T) {
	specs, err := ParseTriggerSpecs("home,categories:0 * * * *;notifications:@hourly", testAvailable)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, []string{"home", "categories"}, specs[0].Operations)
	assert.Equal(t, "0 * * * *", specs[0].CronSpec)

	assert.Equal(t, []string{"notifications"}, specs[1].Operations)
	assert.Equal(t, "@hourly", specs[1].CronSpec)
}

func TestParseTriggerSpecs_WhitespaceAndEmptyEntries(t *testing.T) {
	specs, err := ParseTriggerSpecs("  home , ,categories : 0 2 * * * ; favorites : 0 3 * * * ;", testAvailable)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, []string{"home", "categories"}, specs[0].Operations)
	assert.Equal(t, "0 2 * * *", specs[0].CronSpec)
	assert.Equal(t, []string{"favorites"}, specs[1].Operations)
	assert.Equal(t, "0 3 * * *", specs[1].CronSpec)
}

func TestParseTriggerSpecs_SameOperationAcrossTriggers(t *testing.T) {
	specs, err := ParseTriggerSpecs("home:0 2 * * *;home:0 14 * * *", testAvailable)
	require.NoError(t, err)
	require.Len(t, specs, 2)
}

func TestParseTriggerSpecs_Errors(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantErr string
	}{
		{name: "empty", spec: "", wantErr: "cannot be empty"},
		{name: "whitespace only", spec: "   ", wantErr: "cannot be empty"},
		{name: "only semicolons", spec: ";;;", wantErr: "no valid triggers"},
		{name: "missing colon", spec: "home,categories", wantErr: "expected format 'operations:cron'"},
		{name: "missing operations", spec: ":0 2 * * *", wantErr: "missing operations"},
		{name: "all operations empty", spec: ",,:0 2 * * *", wantErr: "missing operations"},
		{name: "missing schedule", spec: "home:", wantErr: "missing cron schedule"},
		{name: "invalid cron", spec: "home:invalid cron", wantErr: "invalid cron expression"},
		{name: "extra colons", spec: "home:0:2:* * *", wantErr: "invalid cron expression"},
		{name: "unknown operation", spec: "login:0 2 * * *", wantErr: "unknown operation 'login' (available: categories, favorites, home, notifications)"},
		{name: "duplicate operation", spec: "home,home:0 2 * * *", wantErr: "duplicate operation 'home'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTriggerSpecs(tt.spec, testAvailable)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFromConfig(t *testing.T) {
	specs, err := FromConfig([]config.RefreshTrigger{
		{Operations: []string{"home", "categories"}, Schedule: "*/30 * * * *"},
		{Operations: []string{"favorites"}, Schedule: "@daily"},
	}, testAvailable)
	require.NoError(t, err)
	assert.Equal(t, []TriggerSpec{
		{Operations: []string{"home", "categories"}, CronSpec: "*/30 * * * *"},
		{Operations: []string{"favorites"}, CronSpec: "@daily"},
	}, specs)

	_, err = FromConfig([]config.RefreshTrigger{
		{Operations: []string{"home"}, Schedule: "@daily"},
		{Operations: []string{"tickets"}, Schedule: "@daily"},
	}, testAvailable)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refresh trigger 1: unknown operation 'tickets'")

	specs, err = FromConfig(nil, testAvailable)
	require.NoError(t, err)
	assert.Empty(t, specs)
}
