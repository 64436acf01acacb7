// Command mowas-beacon polls the MOWAS civil-protection feed and
// delivers matching broadcasts to email, SMS, and webhook notifier
// channels. Wiring follows the teacher's cmd/seabird-nwwsio-plugin/main.go:
// load .env, configure zerolog, validate required settings with a fatal
// exit on failure, then run until SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/jschultzelutter/mowas-beacon/internal/cache"
	"github.com/jschultzelutter/mowas-beacon/internal/config"
	"github.com/jschultzelutter/mowas-beacon/internal/dispatch"
	"github.com/jschultzelutter/mowas-beacon/internal/dispatch/email"
	"github.com/jschultzelutter/mowas-beacon/internal/dispatch/notifier"
	"github.com/jschultzelutter/mowas-beacon/internal/dispatch/smstransport"
	"github.com/jschultzelutter/mowas-beacon/internal/enrich"
	"github.com/jschultzelutter/mowas-beacon/internal/enrich/geocode"
	"github.com/jschultzelutter/mowas-beacon/internal/enrich/staticmap"
	"github.com/jschultzelutter/mowas-beacon/internal/enrich/summarize"
	"github.com/jschultzelutter/mowas-beacon/internal/enrich/translate"
	"github.com/jschultzelutter/mowas-beacon/internal/feed"
	"github.com/jschultzelutter/mowas-beacon/internal/logging"
	"github.com/jschultzelutter/mowas-beacon/internal/model"
	"github.com/jschultzelutter/mowas-beacon/internal/position"
	"github.com/jschultzelutter/mowas-beacon/internal/retention"
	"github.com/jschultzelutter/mowas-beacon/internal/scheduler"
	"github.com/jschultzelutter/mowas-beacon/internal/warncell"
)

const defaultWarncellURL = "https://warnung.bund.de/bbk.mowas/warncellids.csv"
const defaultFeedBaseURL = "https://warnung.bund.de"

func main() {
	_ = godotenv.Load()
	logging.Init("")

	flags := &config.Flags{}
	cmd := config.NewRootCommand(flags, run)
	if err := cmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("mowas-beacon exited with an error")
	}
}

func run(flags *config.Flags) error {
	settings, err := resolveSettings(flags)
	if err != nil {
		return fmt.Errorf("resolving configuration: %w", err)
	}

	if flags.GenerateTestMessage {
		return emitTestMessage(settings)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	warncellTable, err := warncell.Load(ctx, settings.WarncellURL)
	if err != nil {
		// Loading the Warncell table is a hard precondition: without it
		// geocodes cannot be resolved to their short names.
		return fmt.Errorf("loading warncell table: %w", err)
	}
	log.Info().Int("entries", warncellTable.Len()).Msg("warncell table loaded")

	feedClient := feed.New(settings.FeedBaseURL)
	feedClient.LocalFile = settings.LocalFile

	var positionProvider position.Provider = position.Noop{}
	if settings.AprsFiAPIKey != "" {
		positionProvider = position.NewAprsFi(settings.AprsFiAPIKey)
	}

	retentionJob := retention.New(retention.Config{
		Address:          settings.IMAPUser,
		Password:         settings.IMAPPassword,
		ServerHost:       settings.IMAPHost,
		ServerPort:       settings.IMAPPort,
		MailboxName:      "INBOX",
		MaxRetentionDays: settings.IMAPMailRetentionDays,
	})

	s := &scheduler.Scheduler{
		Feed:       feedClient,
		Warncell:   warncellTable,
		Cache:      cache.New(cache.DefaultMaxEntries, time.Duration(settings.TTLMinutes)*time.Minute),
		Dispatcher: buildDispatcher(settings),
		Position:   positionProvider,
		Retention:  retentionJob,
		Settings:   settings,
		EnrichConfig: func(live *model.WatchPoint) enrich.Config {
			return buildEnrichConfig(settings, live)
		},
	}

	log.Info().
		Int("watch_points", len(settings.WatchPoints)).
		Strs("categories", categoryNames(settings.EnabledCategories)).
		Msg("starting poll loop")

	err = s.Run(ctx)
	if err != nil && err != context.Canceled {
		return fmt.Errorf("scheduler stopped: %w", err)
	}
	log.Info().Msg("shutdown complete")
	return nil
}

// resolveSettings merges CLI flags with the on-disk config file into an
// immutable model.Settings, failing fast on any invalid value.
func resolveSettings(flags *config.Flags) (model.Settings, error) {
	fileSettings, err := config.ParseFile(flags.ConfigFile)
	if err != nil {
		return model.Settings{}, err
	}

	categories, err := fileSettings.Categories()
	if err != nil {
		return model.Settings{}, err
	}

	watchPoints, err := fileSettings.WatchPoints()
	if err != nil {
		return model.Settings{}, err
	}

	retentionDays, err := fileSettings.IntValue("imap_mail_retention_max_days", 0)
	if err != nil {
		return model.Settings{}, err
	}
	imapPort, err := fileSettings.IntValue("imap_server_port", 0)
	if err != nil {
		return model.Settings{}, err
	}
	smtpPort, err := fileSettings.IntValue("smtp_server_port", 0)
	if err != nil {
		return model.Settings{}, err
	}

	settings := model.Settings{
		WatchPoints:              watchPoints,
		EnabledCategories:        categories,
		MinSeverity:              config.SeverityOf(flags.WarningLevel),
		HighPrioLevel:            config.SeverityOf(flags.HighPrioLevel),
		StandardIntervalMinutes:  flags.StandardRunInterval,
		EmergencyIntervalMinutes: flags.EmergencyRunInterval,
		TTLMinutes:               flags.TTLMinutes,
		Follow:                   flags.FollowTheHam,
		TargetLanguage:           flags.TranslateTo,
		IncludeCovidContent:      flags.EnableCovidContent,
		Summarizer:               flags.TextSummarizer,
		GenericSummarizerURL:     valueOrEmpty(fileSettings, "generic_summarizer_url"),
		EmailRecipient:           firstNonEmpty(flags.EmailRecipient, fileSettings["email_recipient"]),
		SMSMessageLength:         flags.SMSMessageLength,
		SMSMessageSplit:          flags.SMSMessageSplit,
		FeedBaseURL:              firstNonEmpty(fileSettings["mowas_feed_base_url"], defaultFeedBaseURL),
		WarncellURL:              firstNonEmpty(fileSettings["warncell_url"], defaultWarncellURL),

		AprsFiAPIKey: valueOrEmpty(fileSettings, "aprsdotfi_api_key"),
		DeepLAPIKey:  valueOrEmpty(fileSettings, "deepldotcom_api_key"),
		OpenAIAPIKey: valueOrEmpty(fileSettings, "openai_api_key"),
		PaLMAPIKey:   valueOrEmpty(fileSettings, "palm_api_key"),

		SMTPHost:     fileSettings["smtp_server_address"],
		SMTPPort:     smtpPort,
		SMTPUser:     fileSettings["smtp_server_user"],
		SMTPPassword: fileSettings["smtp_server_password"],
		SMTPFrom:     fileSettings["smtp_server_sender"],

		IMAPHost:              fileSettings["imap_server_address"],
		IMAPPort:              imapPort,
		IMAPUser:              fileSettings["imap_email_address"],
		IMAPPassword:          fileSettings["imap_email_password"],
		IMAPMailRetentionDays: retentionDays,

		NotifierWebhookURL: valueOrEmpty(fileSettings, "notifier_webhook_url"),
		SMSTransportURL:    valueOrEmpty(fileSettings, "sms_transport_url"),

		LocalFile: flags.LocalFile,
	}

	return settings, nil
}

func valueOrEmpty(fs config.FileSettings, key string) string {
	if !fs.IsConfigured(key) {
		return ""
	}
	return fs[key]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func categoryNames(categories []model.Category) []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	return names
}

func buildEnrichConfig(settings model.Settings, live *model.WatchPoint) enrich.Config {
	cfg := enrich.Config{
		Geocoder:      geocode.Noop{},
		Translator:    translate.Noop{},
		Summarizer:    summarize.Internal{MaxLength: summarize.DefaultInternalMaxLength},
		MapRenderer:   staticmap.Noop{},
		TargetLang:    settings.TargetLanguage,
		HighPrioLevel: settings.HighPrioLevel,
		LivePoint:     live,
	}

	cfg.Geocoder = geocode.NewNominatim("https://nominatim.openstreetmap.org", "mowas-beacon")

	if settings.DeepLAPIKey != "" {
		cfg.Translator = translate.NewDeepL(settings.DeepLAPIKey)
	}

	switch settings.Summarizer {
	case summarize.KeyGeneric:
		if settings.GenericSummarizerURL != "" {
			cfg.Summarizer = summarize.NewGeneric(settings.GenericSummarizerURL)
		}
	case summarize.KeyOpenAI:
		if settings.OpenAIAPIKey != "" {
			cfg.Summarizer = summarize.NewOpenAI(settings.OpenAIAPIKey)
		}
	case summarize.KeyPaLM:
		if settings.PaLMAPIKey != "" {
			cfg.Summarizer = summarize.NewPaLM(settings.PaLMAPIKey)
		}
	}

	if settings.NotifierWebhookURL != "" {
		// A map rendering backend only makes sense alongside a notifier
		// rich enough to display it; plain email/SMS recipients never
		// request one.
		cfg.MapRenderer = staticmap.NewHTTPRenderer(settings.NotifierWebhookURL + "/map")
	}

	return cfg
}

func buildDispatcher(settings model.Settings) *dispatch.Dispatcher {
	d := &dispatch.Dispatcher{}

	if settings.EmailRecipient != "" && settings.SMTPHost != "" {
		d.Email = &dispatch.EmailChannel{
			Sender: email.New(email.Config{
				SMTPHost:  settings.SMTPHost,
				SMTPPort:  settings.SMTPPort,
				Username:  settings.SMTPUser,
				Password:  settings.SMTPPassword,
				From:      settings.SMTPFrom,
				Recipient: settings.EmailRecipient,
			}),
		}
	}

	if settings.SMSTransportURL != "" {
		d.SMS = &dispatch.SMSChannel{
			Sender:       smstransport.NewHTTPSender(settings.SMSTransportURL),
			MaxLength:    settings.SMSMessageLength,
			SplitEnabled: settings.SMSMessageSplit,
		}
	}

	if settings.NotifierWebhookURL != "" {
		d.Notifier = &dispatch.NotifierChannel{
			Sink: notifier.NewWebhookSink(settings.NotifierWebhookURL),
		}
	}

	return d
}

// emitTestMessage builds and dispatches one synthetic broadcast through
// the full enrichment and delivery pipeline, for verifying channel
// configuration without waiting on a real MOWAS event. The identifier is
// random so it is never mistaken for a cached, previously-seen alert.
func emitTestMessage(settings model.Settings) error {
	testID := "TEST-" + uuid.NewString()

	broadcast := model.Broadcast{
		Identifier: testID,
		MsgType:    model.MsgTypeAlert,
		Sent:       time.Now().Format(time.RFC3339),
		Info: []model.Info{{
			Severity:    model.SeverityExtreme,
			Headline:    "Test notification from mowas-beacon",
			Description: "This is a generated test message; no real warning is in effect.",
		}},
	}

	points := settings.WatchPoints
	if len(points) == 0 {
		points = []model.WatchPoint{{Latitude: 48.4781, Longitude: 10.774}}
	}

	match := enrich.AreaMatch{
		AreaDesc: "Test area",
		Points:   points,
	}

	rec := enrich.Enrich(context.Background(), broadcast, []enrich.AreaMatch{match}, buildEnrichConfig(settings, nil))
	if err := buildDispatcher(settings).Send(context.Background(), rec); err != nil {
		return fmt.Errorf("sending test message: %w", err)
	}

	log.Info().Str("identifier", testID).Msg("test message dispatched")
	return nil
}
