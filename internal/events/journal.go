package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/opencode-ai/cradle/internal/db"
	"github.com/opencode-ai/cradle/internal/logging"
	"github.com/opencode-ai/cradle/internal/models"
	"github.com/opencode-ai/cradle/internal/story"
)

// SessionStore tracks journaled sessions.
type SessionStore interface {
	Create(ctx context.Context, s *models.Session) error
	RecordPassage(ctx context.Context, id, passage string) error
	Finish(ctx context.Context, id string, t time.Time) error
}

// JournalOptions controls what the journal keeps.
type JournalOptions struct {
	// IncludeOutput records output.added and output.removed events.
	IncludeOutput bool
}

// Journal is a story.Sink that persists notifications. Write failures are
// logged and counted; they never interrupt playback.
type Journal struct {
	mu       sync.Mutex
	ctx      context.Context
	events   Repository
	sessions SessionStore
	session  *models.Session
	opts     JournalOptions
	logger   zerolog.Logger
	failures int
	closed   bool
}

// OpenJournal starts a journaled session for storyName in database.
func OpenJournal(ctx context.Context, database *db.DB, storyName string, opts JournalOptions) (*Journal, error) {
	if database == nil {
		return nil, errors.New("database is required")
	}
	return NewJournal(ctx, db.NewEventRepository(database), db.NewSessionRepository(database), storyName, opts)
}

// NewJournal starts a journaled session using the given stores.
func NewJournal(ctx context.Context, events Repository, sessions SessionStore, storyName string, opts JournalOptions) (*Journal, error) {
	if events == nil || sessions == nil {
		return nil, errors.New("event and session stores are required")
	}

	session := &models.Session{Story: storyName}
	if err := sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	if err := LogSessionStarted(ctx, events, session.ID, storyName); err != nil {
		return nil, err
	}

	return &Journal{
		ctx:      ctx,
		events:   events,
		sessions: sessions,
		session:  session,
		opts:     opts,
		logger:   logging.Component("journal").With().Str("session", session.ID).Logger(),
	}, nil
}

// SessionID returns the journaled session's ID.
func (j *Journal) SessionID() string { return j.session.ID }

// Failures returns how many writes failed.
func (j *Journal) Failures() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.failures
}

// Emit implements story.Sink.
func (j *Journal) Emit(ev story.Event) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return
	}
	if !j.opts.IncludeOutput && (ev.Type == story.EventOutputAdded || ev.Type == story.EventOutputRemoved) {
		return
	}

	if _, err := Record(j.ctx, j.events, j.session.ID, ev); err != nil {
		j.fail(err, ev.Type)
		return
	}
	if ev.Type == story.EventPassageEntered {
		if err := j.sessions.RecordPassage(j.ctx, j.session.ID, ev.Passage); err != nil {
			j.fail(err, ev.Type)
		}
	}
}

func (j *Journal) fail(err error, typ story.EventType) {
	j.failures++
	j.logger.Error().Err(err).Str("event", string(typ)).Msg("journal write failed")
}

// Close marks the session finished. Later events are dropped.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true

	if err := j.sessions.Finish(j.ctx, j.session.ID, time.Now().UTC()); err != nil {
		return err
	}
	return LogSessionEnded(j.ctx, j.events, j.session.ID, j.session.Story)
}
