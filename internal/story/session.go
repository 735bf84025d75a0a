package story

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/opencode-ai/cradle/internal/cues"
	"github.com/opencode-ai/cradle/internal/logging"
	"github.com/opencode-ai/cradle/internal/output"
	"github.com/opencode-ai/cradle/internal/vars"
)

const tracerName = "github.com/opencode-ai/cradle/internal/story"

// Options configures a Session. Zero values select defaults.
type Options struct {
	// Registry holds the cue listeners. Default: an empty registry.
	Registry *cues.Registry
	// Sink receives host notifications. Default: NoopSink.
	Sink Sink
	// Clock supplies passage time. Default: the wall clock.
	Clock Clock
	// Tracer records spans around playback calls. Default: the global
	// otel tracer provider.
	Tracer trace.Tracer
}

// callbacks is a suspendable sequence of steps. It remembers the next step
// so a paused sequence resumes exactly where it stopped.
type callbacks struct {
	steps []func()
	pos   int
	then  func()
}

func (c *callbacks) add(steps ...func()) {
	c.steps = append(c.steps, steps...)
}

// Session plays a Story. It is single-threaded: every method must be called
// from the host's control loop, and cue handlers run synchronously.
type Session struct {
	story  *Story
	index  *cues.Index
	vars   *vars.Store
	sink   Sink
	clock  Clock
	tracer trace.Tracer
	logger zerolog.Logger

	state         State
	resumeState   State
	inStateChange int
	ended         bool

	current     *Passage
	out         *output.Output
	thread      *thread
	pending     *callbacks
	suspensions []cues.Suspension
	currentLink *output.Link
	abortTo     string
	aborted     bool

	history   []string
	linksDone int
	entries   int

	updateCues      []cues.Cue
	updateCuesValid bool

	passageStart time.Time
	pausedAt     time.Time
	pausedTotal  time.Duration
}

// NewSession creates an idle session for st.
func NewSession(st *Story, opts Options) *Session {
	if opts.Registry == nil {
		opts.Registry = cues.NewRegistry()
	}
	if opts.Sink == nil {
		opts.Sink = NoopSink{}
	}
	if opts.Clock == nil {
		opts.Clock = wallClock{}
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}

	s := &Session{
		story:  st,
		index:  cues.NewIndex(opts.Registry),
		vars:   vars.NewStore(st.Strict),
		sink:   opts.Sink,
		clock:  opts.Clock,
		tracer: opts.Tracer,
		logger: logging.Component("story"),
		out:    output.New(),
	}
	s.out.OnRemoved = func(item output.Item) {
		s.emit(Event{Type: EventOutputRemoved, Passage: s.currentName(), Item: item})
	}
	s.initVars()
	return s
}

func (s *Session) initVars() {
	for _, v := range s.story.Variables {
		if err := s.vars.Set(v.Name, v.Value); err != nil {
			s.logger.Warn().Err(err).Str("var", v.Name).Msg("initial variable rejected")
		}
	}
}

// Story returns the story being played.
func (s *Session) Story() *Story { return s.story }

// State returns the playback state.
func (s *Session) State() State { return s.state }

// Vars returns the session variable store.
func (s *Session) Vars() *vars.Store { return s.vars }

// Output returns the current passage's output list.
func (s *Session) Output() *output.Output { return s.out }

// Registry returns the cue listener registry.
func (s *Session) Registry() *cues.Registry { return s.index.Registry() }

// Clock returns the session clock.
func (s *Session) Clock() Clock { return s.clock }

// CurrentPassage returns the passage being played, or nil.
func (s *Session) CurrentPassage() *Passage { return s.current }

func (s *Session) currentName() string {
	if s.current == nil {
		return ""
	}
	return s.current.Name
}

// CurrentLink returns the link whose action is playing, or nil.
func (s *Session) CurrentLink() *output.Link { return s.currentLink }

// Tags returns the current passage's tags.
func (s *Session) Tags() []string {
	if s.current == nil {
		return nil
	}
	return s.current.Tags
}

// Text returns the current output as plain text.
func (s *Session) Text() string { return s.out.Text() }

// Links returns the links in the current output.
func (s *Session) Links() []*output.Link { return s.out.Links() }

// History returns the names of exited passages, oldest first.
func (s *Session) History() []string {
	out := make([]string, len(s.history))
	copy(out, s.history)
	return out
}

// VisitCount returns how many times name was exited plus one if it is the
// current passage.
func (s *Session) VisitCount(name string) int {
	n := 0
	for _, h := range s.history {
		if h == name {
			n++
		}
	}
	if s.current != nil && s.current.Name == name {
		n++
	}
	return n
}

// IsFirstVisitToPassage reports whether the current passage was never
// exited before.
func (s *Session) IsFirstVisitToPassage() bool {
	if s.current == nil {
		return false
	}
	for _, h := range s.history {
		if h == s.current.Name {
			return false
		}
	}
	return true
}

// NumberOfLinksDone returns how many links completed.
func (s *Session) NumberOfLinksDone() int { return s.linksDone }

// PassageTime returns the time spent in the current passage, excluding
// paused intervals.
func (s *Session) PassageTime() time.Duration {
	if s.current == nil {
		return 0
	}
	end := s.clock.Now()
	if s.state == Paused {
		end = s.pausedAt
	}
	return end.Sub(s.passageStart) - s.pausedTotal
}

// Ended reports whether an abort without follow-up ended the story.
func (s *Session) Ended() bool { return s.ended }

// Begin enters the start passage.
func (s *Session) Begin() error {
	start, err := s.story.Start()
	if err != nil {
		return err
	}
	return s.GoTo(start)
}

// GoTo leaves the current passage, if any, and enters name. It is legal
// only while idle.
func (s *Session) GoTo(name string) error {
	_, span := s.tracer.Start(context.Background(), "story.GoTo",
		trace.WithAttributes(attribute.String("story.passage", name)))
	defer span.End()

	if err := s.checkIdle("GoTo"); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	p, ok := s.story.Passage(name)
	if !ok {
		err := &LookupError{Kind: "passage", Name: name}
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	s.goTo(p)
	span.SetAttributes(attribute.String("story.state", s.state.String()))
	return nil
}

func (s *Session) checkIdle(op string) error {
	switch s.state {
	case Paused:
		return &StateError{Op: op, State: s.state, Reason: "session is paused, call Resume first"}
	case Playing, Exiting:
		return &StateError{Op: op, State: s.state, Reason: "session is already " + s.state.String()}
	}
	if s.ended {
		return &StateError{Op: op, State: s.state, Reason: "session complete, call Reset"}
	}
	return nil
}

func (s *Session) goTo(next *Passage) {
	if s.current == nil {
		s.enter(next)
		return
	}

	leaving := s.current
	s.logger.Debug().Str("from", leaving.Name).Str("to", next.Name).Msg("leaving passage")
	s.setState(Exiting)

	cb := &callbacks{then: func() { s.enter(next) }}
	cb.add(func() {
		s.emit(Event{Type: EventPassageExited, Passage: leaving.Name})
	})
	cb.add(s.cueSteps(s.FindCues(cues.Exit, "", true, true), cues.Event{Kind: cues.Exit, Passage: leaving.Name})...)
	cb.add(func() {
		s.history = append(s.history, leaving.Name)
	})
	if s.run(cb) {
		cb.then()
	}
}

func (s *Session) enter(p *Passage) {
	if s.thread != nil {
		s.thread.close()
	}
	s.out.Reset()
	s.updateCues = nil
	s.updateCuesValid = false
	s.abortTo = ""
	s.aborted = false
	s.currentLink = nil
	s.current = p
	s.entries++
	s.passageStart = s.clock.Now()
	s.pausedTotal = 0
	s.thread = s.collapse(p.Factory(s))

	s.logger.Debug().Str("passage", p.Name).Msg("entering passage")
	s.setState(Playing)

	cb := &callbacks{then: s.drain}
	cb.add(func() {
		s.emit(Event{Type: EventPassageEntered, Passage: p.Name})
	})
	cb.add(s.cueSteps(s.index.FindCues(cues.Enter, p.Name, p.Tags, "", true), cues.Event{Kind: cues.Enter, Passage: p.Name})...)
	if s.run(cb) {
		cb.then()
	}
}

// drain pulls items from the current thread until it is exhausted, aborted
// or a callback pauses the session.
func (s *Session) drain() {
	for s.state == Playing && s.thread != nil {
		item, ok := s.thread.Next()
		if !ok {
			s.complete()
			return
		}
		if abort, isAbort := item.(*output.Abort); isAbort {
			s.abortTo = abort.GoTo
			s.aborted = true
			s.complete()
			return
		}

		s.out.Add(item)
		if _, isEmbed := item.(*output.EmbedPassage); isEmbed {
			s.updateCuesValid = false
		}
		cb := s.itemCallbacks(item)
		if !s.run(cb) {
			return
		}
	}
}

func (s *Session) itemCallbacks(item output.Item) *callbacks {
	passage := s.currentName()
	cb := &callbacks{then: s.drain}
	cb.add(func() {
		s.emit(Event{Type: EventOutputAdded, Passage: passage, Item: item})
	})
	cb.add(s.cueSteps(s.FindCues(cues.Output, s.linkName(), false, true), cues.Event{Kind: cues.Output, Passage: passage, Link: s.currentLink, Item: item})...)
	if embed, ok := item.(*output.EmbedPassage); ok {
		if p, found := s.story.Passage(embed.Name); found {
			cb.add(s.cueSteps(s.index.FindCues(cues.Enter, p.Name, p.Tags, "", true), cues.Event{Kind: cues.Enter, Passage: p.Name, Item: item})...)
		}
	}
	return cb
}

func (s *Session) complete() {
	if s.thread != nil {
		s.thread.close()
		s.thread = nil
	}
	link := s.currentLink
	passage := s.currentName()
	abortTo, aborted := s.abortTo, s.aborted
	s.abortTo, s.aborted = "", false

	s.setState(Idle)

	cb := &callbacks{}
	if link != nil {
		cb.add(func() {
			s.emit(Event{Type: EventLinkDone, Passage: passage, Link: link.Name})
		})
		cb.add(s.cueSteps(s.FindCues(cues.LinkDone, link.Name, false, false), cues.Event{Kind: cues.LinkDone, Passage: passage, Link: link})...)
		cb.add(func() { s.linksDone++ })
	}
	cb.add(func() {
		s.emit(Event{Type: EventPassageDone, Passage: passage})
	})
	cb.add(s.cueSteps(s.FindCues(cues.Done, "", false, false), cues.Event{Kind: cues.Done, Passage: passage})...)
	entries := s.entries
	s.run(cb)
	if s.entries != entries || s.state != Idle {
		// a done cue already moved the session on
		return
	}
	s.currentLink = nil

	next := abortTo
	if next == "" && !aborted && link != nil {
		next = link.PassageName
	}
	if aborted && abortTo == "" {
		s.ended = true
		s.logger.Debug().Str("passage", passage).Msg("story ended")
		return
	}
	if next == "" {
		return
	}
	p, ok := s.story.Passage(next)
	if !ok {
		s.logger.Error().Str("passage", next).Msg("follow-up passage not found")
		return
	}
	s.goTo(p)
}

// run executes callbacks from their remembered position. It returns false
// and keeps cb pending when a step pauses the session.
func (s *Session) run(cb *callbacks) bool {
	for cb.pos < len(cb.steps) {
		step := cb.steps[cb.pos]
		cb.pos++
		step()
		if s.state == Paused {
			s.pending = cb
			return false
		}
	}
	return true
}

func (s *Session) cueSteps(found []cues.Cue, ev cues.Event) []func() {
	steps := make([]func(), 0, len(found))
	for _, c := range found {
		steps = append(steps, func() {
			susp := s.index.Invoke(c, ev)
			if susp == nil || susp.Done() {
				return
			}
			s.suspensions = append(s.suspensions, susp)
			if s.state != Paused {
				if err := s.Pause(); err != nil {
					s.logger.Warn().Err(err).Str("cue", c.String()).Msg("suspension could not pause session")
				}
			}
		})
	}
	return steps
}

func (s *Session) linkName() string {
	if s.currentLink == nil {
		return ""
	}
	return s.currentLink.Name
}

// FindCues returns the cues for kind across the current passage and the
// passages embedded in its output, once per embed record. Exit cues are
// resolved in reverse so embedded passages exit before their host.
func (s *Session) FindCues(kind cues.EventKind, link string, reverse, allowSuspending bool) []cues.Cue {
	if s.current == nil {
		return nil
	}
	passages := []*Passage{s.current}
	for _, embed := range s.out.Embeds() {
		if p, ok := s.story.Passage(embed.Name); ok {
			passages = append(passages, p)
		}
	}
	if reverse {
		for i, j := 0, len(passages)-1; i < j; i, j = i+1, j-1 {
			passages[i], passages[j] = passages[j], passages[i]
		}
	}

	var found []cues.Cue
	for _, p := range passages {
		found = append(found, s.index.FindCues(kind, p.Name, p.Tags, link, allowSuspending)...)
	}
	return found
}

// Pause suspends playback after the running callback returns. It is legal
// while playing or exiting, but not from a state change notification.
func (s *Session) Pause() error {
	if s.inStateChange > 0 {
		return &StateError{Op: "Pause", State: s.state, Reason: "cannot pause from a state change notification"}
	}
	if s.state != Playing && s.state != Exiting {
		return &StateError{Op: "Pause", State: s.state, Reason: "session is " + s.state.String()}
	}
	s.resumeState = s.state
	s.pausedAt = s.clock.Now()
	s.setState(Paused)
	return nil
}

// Resume continues a paused session from the step after the one that
// paused it.
func (s *Session) Resume() error {
	_, span := s.tracer.Start(context.Background(), "story.Resume",
		trace.WithAttributes(attribute.String("story.passage", s.currentName())))
	defer span.End()

	if s.state != Paused {
		err := &StateError{Op: "Resume", State: s.state, Reason: "session is not paused"}
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	s.pausedTotal += s.clock.Now().Sub(s.pausedAt)
	s.suspensions = nil
	s.setState(s.resumeState)

	cb := s.pending
	s.pending = nil
	if cb != nil {
		if !s.run(cb) {
			return nil
		}
		if cb.then != nil {
			cb.then()
		}
		return nil
	}
	if s.state == Playing {
		s.drain()
	}
	return nil
}

// DoLink plays link's action and then enters its follow-up passage. It is
// legal only while idle.
func (s *Session) DoLink(link *output.Link) error {
	_, span := s.tracer.Start(context.Background(), "story.DoLink",
		trace.WithAttributes(attribute.String("story.passage", s.currentName())))
	defer span.End()

	if link == nil {
		return &LookupError{Kind: "link", Name: ""}
	}
	span.SetAttributes(attribute.String("story.link", link.Name))
	if err := s.checkIdle("DoLink"); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if s.current == nil {
		err := &StateError{Op: "DoLink", State: s.state, Reason: "no passage is playing"}
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if link.PassageName != "" {
		if _, ok := s.story.Passage(link.PassageName); !ok {
			err := &LookupError{Kind: "passage", Name: link.PassageName}
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	passage := s.current.Name
	s.currentLink = link
	s.abortTo, s.aborted = "", false
	s.setState(Playing)

	cb := &callbacks{then: func() {
		var action output.Sequence
		if link.Action != nil {
			action = link.Action()
		}
		s.thread = s.collapse(action)
		s.drain()
	}}
	cb.add(func() {
		s.emit(Event{Type: EventLinkBegin, Passage: passage, Link: link.Name})
	})
	cb.add(s.cueSteps(s.FindCues(cues.LinkBegin, link.Name, false, true), cues.Event{Kind: cues.LinkBegin, Passage: passage, Link: link})...)
	if s.run(cb) {
		cb.then()
	}
	return nil
}

// FollowLink runs DoLink for the named link in the current output.
func (s *Session) FollowLink(name string) error {
	for _, l := range s.out.Links() {
		if l.Name == name {
			return s.DoLink(l)
		}
	}
	return &LookupError{Kind: "link", Name: name}
}

// Reset returns the session to its initial idle state: no current passage,
// empty history and initial variables.
func (s *Session) Reset() {
	if s.thread != nil {
		s.thread.close()
		s.thread = nil
	}
	s.pending = nil
	s.suspensions = nil
	s.current = nil
	s.currentLink = nil
	s.abortTo, s.aborted = "", false
	s.ended = false
	s.history = nil
	s.linksDone = 0
	s.updateCues = nil
	s.updateCuesValid = false
	s.pausedTotal = 0
	s.out.Reset()
	s.vars.Reset()
	s.initVars()
	if s.state != Idle {
		s.setState(Idle)
	}
}

// ClearCues drops every cached cue lookup so listener changes take effect.
func (s *Session) ClearCues() {
	s.index.Clear()
	s.updateCues = nil
	s.updateCuesValid = false
}

// Update is the per-frame tick. It resumes a session paused by suspensions
// once all of them are done, then delivers update cues unless paused.
func (s *Session) Update() {
	if s.state == Paused && len(s.suspensions) > 0 && s.suspensionsDone() {
		if err := s.Resume(); err != nil {
			s.logger.Warn().Err(err).Msg("auto resume failed")
		}
	}
	if s.current == nil || s.state == Paused {
		return
	}
	if !s.updateCuesValid {
		s.updateCues = s.FindCues(cues.Update, s.linkName(), false, false)
		s.updateCuesValid = true
	}
	ev := cues.Event{Kind: cues.Update, Passage: s.current.Name, Link: s.currentLink}
	for _, c := range s.updateCues {
		s.index.Invoke(c, ev)
	}
}

func (s *Session) suspensionsDone() bool {
	for _, susp := range s.suspensions {
		if !susp.Done() {
			return false
		}
	}
	return true
}

func (s *Session) setState(next State) {
	prev := s.state
	if prev == next {
		return
	}
	s.state = next
	s.inStateChange++
	defer func() { s.inStateChange-- }()
	s.emit(Event{Type: EventStateChanged, Passage: s.currentName(), OldState: prev, NewState: next})
}

func (s *Session) emit(ev Event) {
	ev.Story = s.story.Name
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.clock.Now()
	}
	s.sink.Emit(ev)
}
