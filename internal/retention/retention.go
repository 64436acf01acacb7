// Package retention implements the mailbox garbage collector: deleting
// messages older than a configured number of days from the sent-mail
// IMAP folder, on its own ticker, independent of the polling loop.
// Ported from
// _examples/original_source/src/modules/mail.py's imap_garbage_collector.
// No IMAP client library appears anywhere in the example pack, so this
// talks IMAP4 directly over net/textproto (justified in DESIGN.md).
package retention

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config describes the IMAP mailbox to clean up.
type Config struct {
	Address          string
	Password         string
	ServerHost       string
	ServerPort       int
	MailboxName      string
	MaxRetentionDays int
}

// Job runs the retention sweep on its own ticker.
type Job struct {
	cfg Config
}

// New returns a Job for cfg. A MaxRetentionDays of zero or a ServerPort
// of zero disables the garbage collector entirely, matching the
// original's disable convention.
func New(cfg Config) *Job {
	return &Job{cfg: cfg}
}

// Enabled reports whether this job would do anything if run.
func (j *Job) Enabled() bool {
	if j.cfg.MaxRetentionDays <= 0 || j.cfg.ServerPort == 0 || j.cfg.ServerHost == "" {
		return false
	}
	if _, err := mail.ParseAddress(j.cfg.Address); err != nil {
		return false
	}
	return true
}

// Run runs the periodic retention sweep until ctx is cancelled, sleeping
// interval between runs. It never returns a non-nil error except for
// context cancellation, so its caller (the scheduler's errgroup) can
// treat it the same as the polling loop: supervised, but per-run
// failures logged rather than fatal.
func (j *Job) Run(ctx context.Context, interval time.Duration) error {
	if !j.Enabled() {
		log.Info().Msg("retention job disabled (no IMAP settings configured)")
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := j.sweepOnce(ctx); err != nil {
				log.Warn().Err(err).Msg("retention sweep failed")
			}
		}
	}
}

func (j *Job) sweepOnce(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -j.cfg.MaxRetentionDays).Format("02-Jan-2006")

	dialer := tls.Dialer{}
	rawConn, err := dialer.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", j.cfg.ServerHost, j.cfg.ServerPort))
	if err != nil {
		return fmt.Errorf("connecting to IMAP server: %w", err)
	}
	conn := rawConn.(*tls.Conn)
	defer conn.Close()

	client := textproto.NewConn(conn)
	defer client.Close()

	if _, err := client.ReadLine(); err != nil {
		return fmt.Errorf("reading IMAP greeting: %w", err)
	}

	if err := imapCommand(client, "a1", fmt.Sprintf("LOGIN %s %s", quote(j.cfg.Address), quote(j.cfg.Password))); err != nil {
		return fmt.Errorf("IMAP login failed: %w", err)
	}
	log.Info().Msg("IMAP login successful")

	if err := imapCommand(client, "a2", fmt.Sprintf("SELECT %s", quote(j.cfg.MailboxName))); err != nil {
		return fmt.Errorf("IMAP SELECT %s failed: %w", j.cfg.MailboxName, err)
	}
	log.Info().Str("mailbox", j.cfg.MailboxName).Msg("IMAP SELECT successful")

	expiredIDs, err := imapSearch(client, "a3", fmt.Sprintf(`SEARCH BEFORE "%s"`, cutoff))
	if err != nil {
		return fmt.Errorf("IMAP SEARCH failed: %w", err)
	}

	if len(expiredIDs) > 0 {
		store := fmt.Sprintf("STORE %s +FLAGS (\\Deleted)", strings.Join(expiredIDs, ","))
		if err := imapCommand(client, "a4", store); err != nil {
			return fmt.Errorf("IMAP STORE failed: %w", err)
		}

		if err := imapCommand(client, "a5", "EXPUNGE"); err != nil {
			return fmt.Errorf("IMAP EXPUNGE failed: %w", err)
		}
	}

	if err := imapCommand(client, "a6", "LOGOUT"); err != nil {
		return fmt.Errorf("IMAP LOGOUT failed: %w", err)
	}

	log.Info().Str("cutoff", cutoff).Int("expired", len(expiredIDs)).Msg("retention sweep complete")
	return nil
}

// imapCommand issues command and reads until the tagged completion line,
// discarding any untagged data in between (used for commands whose
// untagged responses carry nothing this caller needs).
func imapCommand(client *textproto.Conn, tag, command string) error {
	_, err := imapSearch(client, tag, command)
	return err
}

// imapSearch issues command and collects the message numbers from any
// untagged "* SEARCH ..." response lines before the tagged completion
// line, per RFC 3501 §7.2.5. Commands with no SEARCH response (LOGIN,
// SELECT, STORE, EXPUNGE, LOGOUT) simply return a nil slice.
func imapSearch(client *textproto.Conn, tag, command string) ([]string, error) {
	id, err := client.Cmd("%s %s", tag, command)
	if err != nil {
		return nil, err
	}
	client.StartResponse(id)
	defer client.EndResponse(id)

	var ids []string
	for {
		line, err := client.ReadLine()
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(line, "* SEARCH") {
			ids = append(ids, strings.Fields(line)[2:]...)
			continue
		}
		if strings.HasPrefix(line, "*") {
			// Untagged data this caller doesn't need (e.g. STORE's
			// "* n FETCH ..." acknowledgements).
			continue
		}
		if len(line) < len(tag) || line[:len(tag)] != tag {
			return nil, fmt.Errorf("unexpected IMAP response: %s", line)
		}
		if !strings.Contains(line, "OK") {
			return nil, fmt.Errorf("IMAP command %q failed: %s", command, line)
		}
		return ids, nil
	}
}

func quote(s string) string {
	return `"` + s + `"`
}
