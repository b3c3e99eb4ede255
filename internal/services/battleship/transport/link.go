package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "github.com/louisbranch/broadside/internal/platform/errors"
	"github.com/louisbranch/broadside/internal/platform/timeouts"
	"github.com/louisbranch/broadside/internal/services/battleship/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/broadside/internal/services/battleship/transport"

// DefaultMaxAttempts is the number of consecutive failures that end a game.
const DefaultMaxAttempts = 3

// maxLineBytes bounds a single protocol line, newline included. Longer lines
// are skipped and count as a protocol fault.
const maxLineBytes = 4 << 10

// Config tunes a Link. Zero fields take the defaults from the timeouts
// package and DefaultMaxAttempts.
type Config struct {
	ReadTimeout      time.Duration
	WatchdogInterval time.Duration
	QuietPeriod      time.Duration
	MaxAttempts      int
}

func (c Config) withDefaults() Config {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = timeouts.Read
	}
	if c.WatchdogInterval <= 0 {
		c.WatchdogInterval = timeouts.Watchdog
	}
	if c.QuietPeriod <= 0 {
		c.QuietPeriod = timeouts.QuietPeriod
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	return c
}

// Recorder journals every line the link writes or reads.
type Recorder interface {
	Record(ctx context.Context, direction storage.Direction, line string) error
}

// Option configures a Link.
type Option func(*Link)

// WithRecorder journals traffic through r.
func WithRecorder(r Recorder) Option {
	return func(l *Link) {
		l.recorder = r
	}
}

// WithLogger replaces the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(l *Link) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Link) {
		if now != nil {
			l.now = now
		}
	}
}

// Link is one side of a game connection. Send and Receive belong to the game
// loop; Watchdog and Close may run concurrently with them.
type Link struct {
	conn     net.Conn
	reader   *bufio.Reader
	cfg      Config
	recorder Recorder
	logger   *log.Logger
	now      func() time.Time
	tracer   trace.Tracer

	writeMu sync.Mutex

	mu       sync.Mutex
	lastSent string
	hasSent  bool
	// sentGen changes with every Send so a stale retransmission can tell it
	// was superseded.
	sentGen      uint64
	failures     int
	awaiting     bool
	waitingSince time.Time
	fatal        error

	closeOnce sync.Once
	done      chan struct{}
}

// NewLink wraps conn.
func NewLink(conn net.Conn, cfg Config, opts ...Option) *Link {
	l := &Link{
		conn:   conn,
		reader: bufio.NewReaderSize(conn, maxLineBytes),
		cfg:    cfg.withDefaults(),
		logger: log.New(os.Stderr, "", log.LstdFlags),
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Send writes line and remembers it for retransmission. A failed write
// consumes an attempt like a failed read.
func (l *Link) Send(ctx context.Context, line string) error {
	ctx, span := l.tracer.Start(ctx, "broadside.transport.send",
		trace.WithAttributes(attribute.String("broadside.line", line)))
	defer span.End()

	if err := l.failed(); err != nil {
		return err
	}
	l.writeMu.Lock()
	l.mu.Lock()
	l.lastSent = line
	l.hasSent = true
	l.sentGen++
	l.mu.Unlock()
	l.record(ctx, storage.DirectionSent, line)
	_, err := io.WriteString(l.conn, line+"\n")
	l.writeMu.Unlock()

	if err != nil {
		span.RecordError(err)
		// A failed write is retried like a failed read.
		cause := fmt.Errorf("send %s: %w", strconv.Quote(line), err)
		if err := l.retry(ctx, "write", cause); err != nil {
			span.SetStatus(codes.Error, "retries exhausted")
			return err
		}
	}
	return nil
}

// Receive reads lines until accept returns nil for one of them. A read
// failure, or an accept error coded as a protocol fault, consumes one
// attempt and retransmits the last sent line. Other accept errors are
// returned as they are without touching the attempt count.
func (l *Link) Receive(ctx context.Context, accept func(line string) error) error {
	ctx, span := l.tracer.Start(ctx, "broadside.transport.receive")
	defer span.End()

	for {
		if err := l.failed(); err != nil {
			span.SetStatus(codes.Error, "link failed")
			return err
		}
		line, err := l.read(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if fatal := l.failed(); fatal != nil {
				span.SetStatus(codes.Error, "link failed")
				return fatal
			}
			if err := l.retry(ctx, "read", err); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "retries exhausted")
				return err
			}
			continue
		}

		l.record(ctx, storage.DirectionReceived, line)
		if err := accept(line); err != nil {
			if !apperrors.HasCode(err, apperrors.CodeProtocolFault) {
				return err
			}
			if err := l.retry(ctx, "reject", err); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "retries exhausted")
				return err
			}
			continue
		}

		l.mu.Lock()
		l.failures = 0
		l.mu.Unlock()
		span.SetAttributes(attribute.String("broadside.line", line))
		return nil
	}
}

// Watchdog checks every WatchdogInterval whether a reply has been awaited
// longer than QuietPeriod and, if so, starts recovery. It returns nil when
// ctx ends or the link closes, and the fatal error if its own recovery
// exhausted the attempts.
func (l *Link) Watchdog(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.WatchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.done:
			return nil
		case <-ticker.C:
		}

		// The overdue check and the attempt count share one critical
		// section, so a reply landing in between cannot be charged.
		l.mu.Lock()
		overdue := l.awaiting && l.fatal == nil && l.now().Sub(l.waitingSince) >= l.cfg.QuietPeriod
		var f failure
		if overdue {
			// The next check starts a fresh quiet period.
			l.waitingSince = l.now()
			f = l.countLocked(errors.New("peer silent for " + l.cfg.QuietPeriod.String()))
		}
		l.mu.Unlock()
		if !overdue {
			continue
		}

		spanCtx, span := l.tracer.Start(ctx, "broadside.transport.watchdog")
		err := l.recover(spanCtx, "watchdog", f)
		span.End()
		if err != nil {
			return err
		}
	}
}

// Err returns the fatal error once retries are exhausted.
func (l *Link) Err() error {
	return l.failed()
}

// Close closes the connection and stops the watchdog. It is safe to call
// more than once.
func (l *Link) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		err = l.conn.Close()
	})
	return err
}

func (l *Link) read(ctx context.Context) (string, error) {
	l.mu.Lock()
	l.awaiting = true
	l.waitingSince = l.now()
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.awaiting = false
		l.mu.Unlock()
	}()

	if err := l.conn.SetReadDeadline(time.Now().Add(l.cfg.ReadTimeout)); err != nil {
		return "", err
	}
	// Cancellation interrupts the blocking read without closing the link.
	stop := context.AfterFunc(ctx, func() {
		_ = l.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	data, err := l.reader.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		// Drop the rest of the line so the next read starts at a boundary.
		for errors.Is(err, bufio.ErrBufferFull) {
			_, err = l.reader.ReadSlice('\n')
		}
		if err != nil {
			return "", readError(err)
		}
		return "", apperrors.Newf(apperrors.CodeProtocolFault, "line longer than %d bytes", maxLineBytes)
	}
	if err != nil {
		return "", readError(err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func readError(err error) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("connection closed by peer: %w", err)
	}
	return err
}

// failure is the link state captured when an attempt was counted.
type failure struct {
	attempt int
	line    string
	hasSent bool
	sentGen uint64
	cause   error
	fatal   error
	// stale is set when the link had already failed before this count.
	stale bool
}

// countLocked counts one failed attempt; l.mu must be held. At the limit it
// sets the fatal error.
func (l *Link) countLocked(cause error) failure {
	if l.fatal != nil {
		return failure{fatal: l.fatal, stale: true}
	}
	l.failures++
	f := failure{
		attempt: l.failures,
		line:    l.lastSent,
		hasSent: l.hasSent,
		sentGen: l.sentGen,
		cause:   cause,
	}
	if f.attempt >= l.cfg.MaxAttempts {
		l.fatal = apperrors.Wrap(apperrors.CodeCommunicationFault,
			fmt.Sprintf("communication failed after %d attempts", f.attempt), cause)
		f.fatal = l.fatal
	}
	return f
}

// retry counts one failed attempt. Below the limit it retransmits the last
// sent line; at the limit it closes the link and returns the fatal error.
func (l *Link) retry(ctx context.Context, reason string, cause error) error {
	l.mu.Lock()
	f := l.countLocked(cause)
	l.mu.Unlock()
	return l.recover(ctx, reason, f)
}

// recover acts on a counted failure.
func (l *Link) recover(ctx context.Context, reason string, f failure) error {
	if f.stale {
		return f.fatal
	}
	span := trace.SpanFromContext(ctx)
	if f.fatal != nil {
		l.logger.Printf("%s: giving up after %d/%d attempts: %v", reason, f.attempt, l.cfg.MaxAttempts, f.cause)
		span.AddEvent(reason, trace.WithAttributes(
			attribute.Int("broadside.attempt", f.attempt),
			attribute.Bool("broadside.fatal", true),
		))
		_ = l.Close()
		return f.fatal
	}

	span.AddEvent(reason, trace.WithAttributes(attribute.Int("broadside.attempt", f.attempt)))
	if !f.hasSent {
		l.logger.Printf("%s: %v, waiting again (attempt %d/%d)", reason, f.cause, f.attempt, l.cfg.MaxAttempts)
		return nil
	}
	l.logger.Printf("%s: %v, retransmitting %q (attempt %d/%d)", reason, f.cause, f.line, f.attempt, l.cfg.MaxAttempts)
	sent, err := l.retransmit(ctx, f)
	if err != nil {
		// The next read fails too and consumes the next attempt.
		l.logger.Printf("retransmit %q: %v", f.line, err)
		return nil
	}
	if !sent {
		l.logger.Printf("%s: %q was superseded, not retransmitting", reason, f.line)
		return nil
	}
	span.AddEvent("retransmit", trace.WithAttributes(attribute.Int("broadside.attempt", f.attempt)))
	return nil
}

// retransmit writes f.line again unless a newer line was sent since f was
// counted.
func (l *Link) retransmit(ctx context.Context, f failure) (bool, error) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	l.mu.Lock()
	current := l.sentGen == f.sentGen
	l.mu.Unlock()
	if !current {
		return false, nil
	}
	if _, err := io.WriteString(l.conn, f.line+"\n"); err != nil {
		return true, err
	}
	l.record(ctx, storage.DirectionRetransmitted, f.line)
	return true, nil
}

func (l *Link) failed() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fatal
}

func (l *Link) record(ctx context.Context, direction storage.Direction, line string) {
	if l.recorder == nil {
		return
	}
	if err := l.recorder.Record(ctx, direction, line); err != nil {
		l.logger.Printf("journal %s %q: %v", direction, line, err)
	}
}
