// Package mirror abstracts the externally-owned artifact (e.g. a calendar
// event) associated with a payment. The engine only stores the returned
// reference; the artifact itself lives outside this system.
package mirror

import (
	"context"
	"time"

	"github.com/dkazakov/paysync/internal/logging"
)

// Service creates, updates and removes mirrored artifacts.
type Service interface {
	// CreateMirror creates an artifact and returns its opaque reference.
	CreateMirror(ctx context.Context, title string, date time.Time) (string, error)

	// UpdateMirror updates the artifact behind ref.
	UpdateMirror(ctx context.Context, ref string, title string, date time.Time) error

	// RemoveMirror removes the artifact behind ref.
	RemoveMirror(ctx context.Context, ref string) error
}

// Disabled is a Service that mirrors nothing. Used when no calendar
// integration is configured.
type Disabled struct{}

func (Disabled) CreateMirror(ctx context.Context, title string, date time.Time) (string, error) {
	return "", nil
}

func (Disabled) UpdateMirror(ctx context.Context, ref string, title string, date time.Time) error {
	return nil
}

func (Disabled) RemoveMirror(ctx context.Context, ref string) error {
	return nil
}

// Logging wraps a Service and logs every call. Useful while a real calendar
// backend is being wired by the host application.
type Logging struct {
	Next Service
	Log  logging.Logger
}

func (l *Logging) CreateMirror(ctx context.Context, title string, date time.Time) (string, error) {
	ref, err := l.Next.CreateMirror(ctx, title, date)
	l.Log.Debug(ctx, "mirror create", "title", title, "ref", ref, "err", err)
	return ref, err
}

func (l *Logging) UpdateMirror(ctx context.Context, ref string, title string, date time.Time) error {
	err := l.Next.UpdateMirror(ctx, ref, title, date)
	l.Log.Debug(ctx, "mirror update", "ref", ref, "err", err)
	return err
}

func (l *Logging) RemoveMirror(ctx context.Context, ref string) error {
	err := l.Next.RemoveMirror(ctx, ref)
	l.Log.Debug(ctx, "mirror remove", "ref", ref, "err", err)
	return err
}
