// Package audit writes the immutable audit trail of identity operations.
//
// Every sink is synchronous: Append returns only once the record is stored
// (or has failed to be), and a failure is always returned to the caller.
package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/organlink/internal/dbx"
	"github.com/dmitrijs2005/organlink/internal/logging"
	"github.com/dmitrijs2005/organlink/internal/server/metrics"
	"github.com/dmitrijs2005/organlink/internal/server/models"
	"github.com/dmitrijs2005/organlink/internal/server/repositories/repomanager"
)

// Sink stores audit records. It must not drop a record silently.
type Sink interface {
	Append(ctx context.Context, record *models.AuditRecord) error
}

// Binder returns the sink to use for records written through db, so a
// record can share the transaction of the change it describes.
type Binder interface {
	For(db dbx.DBTX) Sink
}

// Trail is the production Binder: the audit_logs table is the primary sink,
// optionally mirrored (e.g. to S3). Each sink is metered under its name.
type Trail struct {
	manager repomanager.RepositoryManager
	mirrors []Sink
	logger  logging.Logger
}

// NewTrail creates a Trail over the audit_logs repository of manager, mirroring
// every record to mirrors.
func NewTrail(manager repomanager.RepositoryManager, logger logging.Logger, mirrors ...Sink) *Trail {
	return &Trail{manager: manager, mirrors: mirrors, logger: logger.With("module", "audit")}
}

// For returns the sink for records written through db: the repository sink
// bound to db, fanned out to the mirrors when there are any.
func (t *Trail) For(db dbx.DBTX) Sink {
	primary := NewMeteredSink("repository", NewRepositorySink(t.manager.AuditLogs(db)), t.logger)
	if len(t.mirrors) == 0 {
		return primary
	}
	return NewFanoutSink(primary, t.mirrors...)
}

// FanoutSink appends to every sink in order and reports all failures
// joined. A record counts as stored only when every sink stored it.
type FanoutSink struct {
	sinks []Sink
}

// NewFanoutSink appends to primary first, then to each mirror.
func NewFanoutSink(primary Sink, mirrors ...Sink) *FanoutSink {
	return &FanoutSink{sinks: append([]Sink{primary}, mirrors...)}
}

// Append stores rec in every sink, even after one of them fails.
func (f *FanoutSink) Append(ctx context.Context, rec *models.AuditRecord) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Append(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MeteredSink counts and logs failures of the wrapped sink.
type MeteredSink struct {
	name   string
	next   Sink
	logger logging.Logger
}

// NewMeteredSink wraps next, reporting its failures under name.
func NewMeteredSink(name string, next Sink, logger logging.Logger) *MeteredSink {
	return &MeteredSink{name: name, next: next, logger: logger}
}

func (m *MeteredSink) Append(ctx context.Context, rec *models.AuditRecord) error {
	if err := m.next.Append(ctx, rec); err != nil {
		metrics.RecordAuditAppendFailure(m.name)
		m.logger.Error(ctx, "audit append failed",
			"sink", m.name, "record_id", rec.ID, "action", rec.Action, "status", rec.Status, "error", err)
		return fmt.Errorf("audit sink %s: %w", m.name, err)
	}
	return nil
}
