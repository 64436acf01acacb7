// Package config builds the CLI surface (spf13/cobra + pflag, following
// the pack's albapepper-scoracle-data and bobbydeveaux-starbucks-mugs
// examples) and the on-disk config-file reader for the "mowas_config"
// INI section. Flag validation mirrors the original's
// standard_run_interval_check / emergency_run_interval_check / capwords
// conversions from
// _examples/original_source/src/modules/utils.py's get_command_line_params.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jschultzelutter/mowas-beacon/internal/model"
)

// 25 ISO 639-1 codes the original tool's translation backend supports.
var supportedLanguages = map[string]bool{
	"bg": true, "cs": true, "da": true, "de": true, "el": true, "en": true,
	"es": true, "et": true, "fi": true, "fr": true, "hu": true, "id": true,
	"it": true, "ja": true, "lt": true, "lv": true, "nl": true, "pl": true,
	"pt": true, "ro": true, "ru": true, "sk": true, "sl": true, "sv": true,
	"zh": true,
}

var severityChoices = map[string]model.Severity{
	"minor": model.SeverityMinor, "moderate": model.SeverityModerate,
	"severe": model.SeveritySevere, "extreme": model.SeverityExtreme,
}

var summarizerChoices = map[string]bool{
	"internal": true, "generic": true, "openai": true, "palm": true,
}

// Flags holds every raw CLI flag value, before resolution against the
// config file.
type Flags struct {
	ConfigFile           string
	MessengerConfigFile  string
	SMSMessengerConfig   string
	SMSMessageLength     int
	SMSMessageSplit      bool
	GenerateTestMessage  bool
	StandardRunInterval  int
	EmergencyRunInterval int
	TTLMinutes           int
	FollowTheHam         string
	WarningLevel         string
	HighPrioLevel        string
	TextSummarizer       string
	EmailRecipient       string
	EnableCovidContent   bool
	TranslateTo          string
	LocalFile            string
}

// NewRootCommand builds the root cobra.Command wired to populate f and
// invoke run once flags validate.
func NewRootCommand(f *Flags, run func(*Flags) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mowas-beacon",
		Short: "Personal MOWAS civil-protection warning beacon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(f)
		},
		SilenceUsage: true,
	}

	fs := cmd.Flags()
	fs.StringVar(&f.ConfigFile, "configfile", "mowas-pwb.cfg", "Program config file name")
	fs.StringVar(&f.MessengerConfigFile, "messenger-config-file", "", "Messenger (chat notifier) config file name")
	fs.StringVar(&f.SMSMessengerConfig, "sms-messenger-config-file", "", "Short-message transport config file name")
	fs.IntVar(&f.SMSMessageLength, "sms-message-length", 80, "Short message length budget, minimum 67 characters")
	fs.BoolVar(&f.SMSMessageSplit, "sms-message-split", true, "Split long messages instead of truncating them")
	fs.BoolVar(&f.GenerateTestMessage, "generate-test-message", false, "Generate a test message and exit")
	fs.IntVar(&f.StandardRunInterval, "standard-run-interval", 60, "Standard poll interval in minutes, minimum 60")
	fs.IntVar(&f.EmergencyRunInterval, "emergency-run-interval", 15, "Emergency poll interval in minutes, minimum 15")
	fs.IntVar(&f.TTLMinutes, "ttl", 8*60, "Cache entry time-to-live in minutes")
	fs.StringVar(&f.FollowTheHam, "follow-the-ham", "", "Call sign whose current position is added to the monitored watch points")
	fs.StringVar(&f.WarningLevel, "warning-level", "Minor", "Minimal severity level: Minor, Moderate, Severe, or Extreme")
	fs.StringVar(&f.HighPrioLevel, "high-prio-level", "Severe", "Severity level at or above which messages are flagged high-priority")
	fs.StringVar(&f.TextSummarizer, "text-summarizer", "internal", "Text summarizer backend: internal, generic, openai, or palm")
	fs.StringVar(&f.EmailRecipient, "email-recipient", "", "Email address that receives notifications")
	fs.BoolVar(&f.EnableCovidContent, "enable-covid-content", false, "Allow broadcasts mentioning covid/corona through")
	fs.StringVar(&f.TranslateTo, "translate-to", "", "ISO 639-1 target language code for translation")
	fs.StringVar(&f.LocalFile, "localfile", "", "Local JSON file to use instead of the live feed, for offline testing")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		return Validate(f)
	}

	return cmd
}

// Validate applies the same checks as the original's argparse `type`
// callbacks and `choices` constraints, normalizing in place.
func Validate(f *Flags) error {
	if f.StandardRunInterval < 60 {
		return fmt.Errorf("--standard-run-interval: minimum standard interval is 60 (minutes)")
	}
	if f.EmergencyRunInterval < 15 {
		return fmt.Errorf("--emergency-run-interval: minimum emergency interval is 15 (minutes)")
	}
	if f.SMSMessageLength < 67 {
		return fmt.Errorf("--sms-message-length: minimum message length is 67")
	}
	if f.EmergencyRunInterval > f.StandardRunInterval {
		return fmt.Errorf("--emergency-run-interval: must not exceed --standard-run-interval")
	}

	if f.FollowTheHam != "" {
		callsign := strings.ToUpper(f.FollowTheHam)
		if idx := strings.Index(callsign, "-"); idx >= 0 {
			callsign = callsign[:idx]
		}
		f.FollowTheHam = callsign
	}

	if _, ok := severityChoices[strings.ToLower(f.WarningLevel)]; !ok {
		return fmt.Errorf("--warning-level: invalid value %q", f.WarningLevel)
	}
	f.WarningLevel = capwords(f.WarningLevel)

	if _, ok := severityChoices[strings.ToLower(f.HighPrioLevel)]; !ok {
		return fmt.Errorf("--high-prio-level: invalid value %q", f.HighPrioLevel)
	}
	f.HighPrioLevel = capwords(f.HighPrioLevel)

	if !summarizerChoices[strings.ToLower(f.TextSummarizer)] {
		return fmt.Errorf("--text-summarizer: invalid value %q", f.TextSummarizer)
	}
	f.TextSummarizer = strings.ToLower(f.TextSummarizer)

	if f.TranslateTo != "" && !supportedLanguages[strings.ToLower(f.TranslateTo)] {
		return fmt.Errorf("--translate-to: unsupported language code %q", f.TranslateTo)
	}

	return nil
}

// capwords title-cases the first letter and lowercases the rest,
// mirroring Python's string.capwords for a single word.
func capwords(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// SeverityOf resolves a validated warning-level/high-prio-level string
// to its model.Severity value.
func SeverityOf(s string) model.Severity {
	return severityChoices[strings.ToLower(s)]
}

const configSectionHeader = "[mowas_config]"

// FileSettings holds the recognized mowas_config section keys, as raw
// strings; ParseFile never interprets "NOT_CONFIGURED" specially, that
// is left to the caller per spec.md §6 ("disable the corresponding
// capability").
type FileSettings map[string]string

// ParseFile reads the semicolon-free INI-style config file at path and
// returns the key/value pairs under "[mowas_config]". No general-purpose
// INI library is used: the pack contains none, and this section has
// only about twenty known keys, so a small bufio/strings reader is the
// appropriately scoped tool here rather than an unused general parser.
func ParseFile(path string) (FileSettings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	settings := make(FileSettings)
	inSection := false

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inSection = strings.EqualFold(line, configSectionHeader)
			continue
		}
		if !inSection {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		settings[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return settings, nil
}

// IsConfigured reports whether key is present and not the literal
// disabling sentinel "NOT_CONFIGURED".
func (fs FileSettings) IsConfigured(key string) bool {
	v, ok := fs[key]
	return ok && v != "" && v != "NOT_CONFIGURED"
}

// Categories parses the comma-separated mowas_active_categories value,
// validating each entry against the six known category names.
func (fs FileSettings) Categories() ([]model.Category, error) {
	raw, ok := fs["mowas_active_categories"]
	if !ok || raw == "" {
		return model.AllCategories, nil
	}

	var out []model.Category
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if !model.ValidCategory(name) {
			return nil, fmt.Errorf("mowas_active_categories: unknown category %q", name)
		}
		out = append(out, model.Category(name))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("mowas_active_categories: must not be empty")
	}
	return out, nil
}

// WatchPoints parses the space-separated "lat,lon" pairs in
// mowas_watch_areas.
func (fs FileSettings) WatchPoints() ([]model.WatchPoint, error) {
	raw, ok := fs["mowas_watch_areas"]
	if !ok || raw == "" {
		return nil, nil
	}

	var points []model.WatchPoint
	for _, pair := range strings.Fields(raw) {
		parts := strings.SplitN(pair, ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("mowas_watch_areas: malformed pair %q", pair)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("mowas_watch_areas: invalid latitude in %q: %w", pair, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("mowas_watch_areas: invalid longitude in %q: %w", pair, err)
		}
		points = append(points, model.WatchPoint{Latitude: lat, Longitude: lon})
	}
	return points, nil
}

// IntValue parses key as an integer, returning def if absent.
func (fs FileSettings) IntValue(key string, def int) (int, error) {
	raw, ok := fs[key]
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, raw, err)
	}
	return v, nil
}
