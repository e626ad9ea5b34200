package main

import (
	"errors"

	"htrae.ai/internal/sim/world"
)

type tickWriter interface {
	WriteTick(world.TickLogEntry) error
}

type auditWriter interface {
	WriteAudit(world.AuditEntry) error
}

// multiTickLogger fans a tick entry out to the journal and the index.
type multiTickLogger struct {
	a tickWriter
	b tickWriter
}

func (m multiTickLogger) WriteTick(e world.TickLogEntry) error {
	var errs []error
	if m.a != nil {
		errs = append(errs, m.a.WriteTick(e))
	}
	if m.b != nil {
		errs = append(errs, m.b.WriteTick(e))
	}
	return errors.Join(errs...)
}

type multiAuditLogger struct {
	a auditWriter
	b auditWriter
}

func (m multiAuditLogger) WriteAudit(e world.AuditEntry) error {
	var errs []error
	if m.a != nil {
		errs = append(errs, m.a.WriteAudit(e))
	}
	if m.b != nil {
		errs = append(errs, m.b.WriteAudit(e))
	}
	return errors.Join(errs...)
}
