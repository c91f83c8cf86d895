// Package audit implements the structured audit trail (SPEC_FULL.md §4.9):
// an async, buffered writer that appends one immutable row per mutating
// registry/identity operation, and a read-side query for the admin-only
// audit-log endpoint.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ArkinSolomon/xpkg-core/internal/dbtx"
)

// Entry is a single audit row (SPEC_FULL.md §4.9: "{actorId, action,
// targetType, targetId, detail, at}").
type Entry struct {
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	Detail     json.RawMessage
	IPAddress  *netip.Addr
	UserAgent  *string
	At         time.Time
}

// Writer is an async, buffered audit log writer. Entries are sent to an
// internal channel and flushed by a background goroutine so the mutation
// that triggered them is never slowed down by the write itself.
type Writer struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	entries chan Entry
	wg      sync.WaitGroup
}

const (
	bufferSize    = 256
	flushInterval = 2 * time.Second
	flushBatch    = 32
)

// NewWriter creates an audit Writer. Call Start to begin processing entries.
func NewWriter(pool *pgxpool.Pool, logger *slog.Logger) *Writer {
	return &Writer{
		pool:    pool,
		logger:  logger,
		entries: make(chan Entry, bufferSize),
	}
}

// Start begins the background goroutine that flushes audit entries to the
// database. It returns when the context is cancelled and all pending
// entries are flushed.
func (w *Writer) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
}

// Close waits for all pending entries to be flushed.
func (w *Writer) Close() {
	close(w.entries)
	w.wg.Wait()
}

// Log enqueues an audit entry for async writing. It never blocks the
// caller; if the buffer is full the entry is dropped and a warning is
// logged, since an audit row is never worth failing the mutation over. A
// nil Writer is a no-op, so callers can hold an optional *Writer without a
// nil check at every call site.
func (w *Writer) Log(entry Entry) {
	if w == nil {
		return
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	select {
	case w.entries <- entry:
	default:
		w.logger.Warn("audit log buffer full, dropping entry",
			"action", entry.Action, "target_type", entry.TargetType)
	}
}

// LogInTx writes one entry synchronously inside tx, for callers that need
// the audit row to share the mutation's transaction rather than being
// flushed asynchronously afterward (SPEC_FULL.md §4.9: "in the same
// transaction as the mutation it records").
func LogInTx(ctx context.Context, tx dbtx.DBTX, entry Entry) error {
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO audit_log (actor_id, action, target_type, target_id, detail, ip_address, user_agent, at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ActorID, entry.Action, entry.TargetType, entry.TargetID, entry.Detail,
		ipString(entry.IPAddress), entry.UserAgent, entry.At,
	)
	return err
}

func ipString(addr *netip.Addr) *string {
	if addr == nil || !addr.IsValid() {
		return nil
	}
	s := addr.String()
	return &s
}

// run is the background loop that drains the entries channel.
func (w *Writer) run(ctx context.Context) {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]Entry, 0, flushBatch)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		w.flush(batch)
		batch = batch[:0]
	}

	for {
		select {
		case entry, ok := <-w.entries:
			if !ok {
				flush()
				return
			}
			batch = append(batch, entry)
			if len(batch) >= flushBatch {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			for {
				select {
				case entry, ok := <-w.entries:
					if !ok {
						flush()
						return
					}
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}

// flush writes a batch of entries to the database in one round trip.
func (w *Writer) flush(entries []Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO audit_log (actor_id, action, target_type, target_id, detail, ip_address, user_agent, at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			e.ActorID, e.Action, e.TargetType, e.TargetID, e.Detail,
			ipString(e.IPAddress), e.UserAgent, e.At,
		)
	}

	br := w.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range entries {
		if _, err := br.Exec(); err != nil {
			w.logger.Error("writing audit log entry", "error", err)
		}
	}
}

// ClientIP extracts the client IP address from a request's headers,
// preferring X-Forwarded-For and X-Real-IP over the raw remote address.
func ClientIP(remoteAddr, xForwardedFor, xRealIP string) netip.Addr {
	if xForwardedFor != "" {
		parts := strings.SplitN(xForwardedFor, ",", 2)
		if addr, err := netip.ParseAddr(strings.TrimSpace(parts[0])); err == nil {
			return addr
		}
	}
	if xRealIP != "" {
		if addr, err := netip.ParseAddr(strings.TrimSpace(xRealIP)); err == nil {
			return addr
		}
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	addr, _ := netip.ParseAddr(host)
	return addr
}
