package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jschultzelutter/mowas-beacon/internal/config"
	"github.com/jschultzelutter/mowas-beacon/internal/model"
)

func TestValidate_RejectsShortStandardInterval(t *testing.T) {
	f := &config.Flags{StandardRunInterval: 59, EmergencyRunInterval: 15, SMSMessageLength: 80, WarningLevel: "Minor", HighPrioLevel: "Severe", TextSummarizer: "internal"}
	err := config.Validate(f)
	assert.ErrorContains(t, err, "standard-run-interval")
}

func TestValidate_RejectsShortEmergencyInterval(t *testing.T) {
	f := &config.Flags{StandardRunInterval: 60, EmergencyRunInterval: 14, SMSMessageLength: 80, WarningLevel: "Minor", HighPrioLevel: "Severe", TextSummarizer: "internal"}
	err := config.Validate(f)
	assert.ErrorContains(t, err, "emergency-run-interval")
}

func TestValidate_RejectsShortSMSLength(t *testing.T) {
	f := &config.Flags{StandardRunInterval: 60, EmergencyRunInterval: 15, SMSMessageLength: 66, WarningLevel: "Minor", HighPrioLevel: "Severe", TextSummarizer: "internal"}
	err := config.Validate(f)
	assert.ErrorContains(t, err, "sms-message-length")
}

func TestValidate_RejectsEmergencyIntervalExceedingStandard(t *testing.T) {
	f := &config.Flags{StandardRunInterval: 60, EmergencyRunInterval: 90, SMSMessageLength: 80, WarningLevel: "Minor", HighPrioLevel: "Severe", TextSummarizer: "internal"}
	err := config.Validate(f)
	assert.ErrorContains(t, err, "emergency-run-interval")
}

func TestValidate_AllowsEmergencyIntervalEqualToStandard(t *testing.T) {
	f := &config.Flags{StandardRunInterval: 60, EmergencyRunInterval: 60, SMSMessageLength: 80, WarningLevel: "Minor", HighPrioLevel: "Severe", TextSummarizer: "internal"}
	assert.NoError(t, config.Validate(f))
}

func TestValidate_NormalizesSeverityCasing(t *testing.T) {
	f := &config.Flags{StandardRunInterval: 60, EmergencyRunInterval: 15, SMSMessageLength: 80, WarningLevel: "mInOr", HighPrioLevel: "SEVERE", TextSummarizer: "internal"}
	require.NoError(t, config.Validate(f))
	assert.Equal(t, "Minor", f.WarningLevel)
	assert.Equal(t, "Severe", f.HighPrioLevel)
	assert.Equal(t, model.SeverityMinor, config.SeverityOf(f.WarningLevel))
}

func TestValidate_StripsSSIDFromFollowTheHam(t *testing.T) {
	f := &config.Flags{StandardRunInterval: 60, EmergencyRunInterval: 15, SMSMessageLength: 80, WarningLevel: "Minor", HighPrioLevel: "Severe", TextSummarizer: "internal", FollowTheHam: "db1abc-9"}
	require.NoError(t, config.Validate(f))
	assert.Equal(t, "DB1ABC", f.FollowTheHam)
}

func TestValidate_RejectsUnknownSummarizer(t *testing.T) {
	f := &config.Flags{StandardRunInterval: 60, EmergencyRunInterval: 15, SMSMessageLength: 80, WarningLevel: "Minor", HighPrioLevel: "Severe", TextSummarizer: "magic"}
	err := config.Validate(f)
	assert.ErrorContains(t, err, "text-summarizer")
}

func TestValidate_RejectsUnsupportedLanguage(t *testing.T) {
	f := &config.Flags{StandardRunInterval: 60, EmergencyRunInterval: 15, SMSMessageLength: 80, WarningLevel: "Minor", HighPrioLevel: "Severe", TextSummarizer: "internal", TranslateTo: "xx"}
	err := config.Validate(f)
	assert.ErrorContains(t, err, "translate-to")
}

func TestParseFile_ReadsKnownSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mowas-pwb.cfg")
	content := `# a comment
[mowas_config]
aprsdotfi_api_key = abc123
mowas_watch_areas = 48.1,10.2 49.3,11.4
mowas_active_categories = TEMPEST,FLOOD
deepldotcom_api_key = NOT_CONFIGURED

[other_section]
aprsdotfi_api_key = should-not-be-read
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	fs, err := config.ParseFile(path)
	require.NoError(t, err)

	assert.Equal(t, "abc123", fs["aprsdotfi_api_key"])
	assert.True(t, fs.IsConfigured("aprsdotfi_api_key"))
	assert.False(t, fs.IsConfigured("deepldotcom_api_key"))
	assert.False(t, fs.IsConfigured("missing_key"))
}

func TestFileSettings_Categories(t *testing.T) {
	fs := config.FileSettings{"mowas_active_categories": "TEMPEST, FLOOD"}
	categories, err := fs.Categories()
	require.NoError(t, err)
	assert.Equal(t, []model.Category{model.Tempest, model.Flood}, categories)
}

func TestFileSettings_Categories_DefaultsToAll(t *testing.T) {
	fs := config.FileSettings{}
	categories, err := fs.Categories()
	require.NoError(t, err)
	assert.Equal(t, model.AllCategories, categories)
}

func TestFileSettings_Categories_RejectsUnknown(t *testing.T) {
	fs := config.FileSettings{"mowas_active_categories": "NOT_A_CATEGORY"}
	_, err := fs.Categories()
	assert.Error(t, err)
}

func TestFileSettings_WatchPoints(t *testing.T) {
	fs := config.FileSettings{"mowas_watch_areas": "48.1,10.2 49.3,11.4"}
	points, err := fs.WatchPoints()
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, model.WatchPoint{Latitude: 48.1, Longitude: 10.2}, points[0])
	assert.Equal(t, model.WatchPoint{Latitude: 49.3, Longitude: 11.4}, points[1])
}

func TestFileSettings_WatchPoints_RejectsMalformedPair(t *testing.T) {
	fs := config.FileSettings{"mowas_watch_areas": "48.1"}
	_, err := fs.WatchPoints()
	assert.Error(t, err)
}

func TestFileSettings_IntValue(t *testing.T) {
	fs := config.FileSettings{"imap_mail_retention_max_days": "30"}
	v, err := fs.IntValue("imap_mail_retention_max_days", 0)
	require.NoError(t, err)
	assert.Equal(t, 30, v)

	v, err = fs.IntValue("missing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
