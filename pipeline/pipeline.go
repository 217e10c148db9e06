// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipeline turns event labels and postal codes into map commands.
//
// Entry points return immediately. Each request runs on its own goroutine,
// bounded by a semaphore, and reports only by pushing a Command on the
// pipeline's queue. The queue has a single consumer, Drain, which is the
// only code allowed to touch the Surface. A request superseded by a newer
// one of the same kind is cancelled and its result is never applied.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/ezpark/ezpark/apierr"
	"github.com/ezpark/ezpark/geocode"
	"github.com/ezpark/ezpark/routing"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// DefaultZoom is the zoom level used when centering on an event.
const DefaultZoom = 13

// LabelParser extracts the postal code embedded in an event label.
type LabelParser interface {
	PostalCodeOf(label string) (string, error)
}

// Options tunes a Pipeline. Zero values select the defaults.
type Options struct {
	// Zoom used by CenterMap commands, DefaultZoom when zero
	Zoom int

	// RequestTimeout bounds a whole request, remote calls included. 30s when zero.
	RequestTimeout time.Duration

	// MaxInFlight caps the requests running at once. 4 when zero.
	MaxInFlight int64

	// QueueSize is the capacity of the command queue. 16 when zero.
	QueueSize int
}

func (o Options) withDefaults() Options {
	if o.Zoom == 0 {
		o.Zoom = DefaultZoom
	}

	if o.RequestTimeout == 0 {
		o.RequestTimeout = 30 * time.Second
	}

	if o.MaxInFlight <= 0 {
		o.MaxInFlight = 4
	}

	if o.QueueSize <= 0 {
		o.QueueSize = 16
	}

	return o
}

type requestKind int

const (
	centerRequest requestKind = iota
	routeRequest
	numRequestKinds
)

type request struct {
	id     string
	kind   requestKind
	cancel context.CancelFunc
}

// Pipeline orchestrates geocoding and routing for the map.
type Pipeline struct {
	geocoder geocode.Resolver
	router   routing.Fetcher
	labels   LabelParser
	options  Options

	sem      *semaphore.Weighted
	commands chan Command

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
	latest [numRequestKinds]*request
}

// New creates a pipeline. Call Close to release it.
func New(geocoder geocode.Resolver, router routing.Fetcher, labels LabelParser, options Options) *Pipeline {
	options = options.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	return &Pipeline{
		geocoder: geocoder,
		router:   router,
		labels:   labels,
		options:  options,
		sem:      semaphore.NewWeighted(options.MaxInFlight),
		commands: make(chan Command, options.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Commands returns the command queue. It is closed by Close.
func (p *Pipeline) Commands() <-chan Command {
	return p.commands
}

// CenterOnEvent starts centering the map on the event with label. It
// returns the request ID, empty when the pipeline is closed.
func (p *Pipeline) CenterOnEvent(label string) string {
	return p.submit(centerRequest, MsgCenterEventFailed, func(ctx context.Context, id string) (Command, error) {
		log.Printf("[%s] center on event %q", id, label)

		cmd, err := p.ResolveCenter(ctx, label)
		cmd.Request = id

		return cmd, err
	})
}

// FindRoute starts finding the route between two postal codes. It returns
// the request ID, empty when the pipeline is closed.
func (p *Pipeline) FindRoute(startZip, destZip string) string {
	return p.submit(routeRequest, MsgRouteFailed, func(ctx context.Context, id string) (Command, error) {
		log.Printf("[%s] find route %q -> %q", id, startZip, destZip)

		cmd, err := p.ResolveRoute(ctx, startZip, destZip)
		cmd.Request = id

		return cmd, err
	})
}

// ResolveCenter resolves label into a CenterMap command. Errors are *UserError.
func (p *Pipeline) ResolveCenter(ctx context.Context, label string) (CenterMap, error) {
	postalCode, err := p.labels.PostalCodeOf(label)
	if err != nil {
		return CenterMap{}, userError(KindInvalidLabel, MsgInvalidEventZip, err)
	}

	if postalCode == "" {
		return CenterMap{}, userError(KindInvalidLabel, MsgInvalidEventZip, nil)
	}

	c, err := p.geocoder.Resolve(ctx, postalCode)
	if err != nil {
		return CenterMap{}, userError(resolveKind(err), fmt.Sprintf(MsgLocationNotFound, postalCode), err)
	}

	return CenterMap{Center: c, Zoom: p.options.Zoom}, nil
}

// ResolveRoute resolves both postal codes and fetches the route between
// them, stopping at the first failure. Errors are *UserError.
func (p *Pipeline) ResolveRoute(ctx context.Context, startZip, destZip string) (DrawPath, error) {
	startZip, destZip = strings.TrimSpace(startZip), strings.TrimSpace(destZip)
	if startZip == "" || destZip == "" {
		return DrawPath{}, userError(KindInput, MsgMissingZipCodes, nil)
	}

	origin, err := p.geocoder.Resolve(ctx, startZip)
	if err != nil {
		return DrawPath{}, userError(resolveKind(err), MsgStartNotFound, fmt.Errorf("resolving %s: %w", startZip, err))
	}

	destination, err := p.geocoder.Resolve(ctx, destZip)
	if err != nil {
		return DrawPath{}, userError(resolveKind(err), MsgDestNotFound, fmt.Errorf("resolving %s: %w", destZip, err))
	}

	path, err := p.router.FetchRoute(ctx, origin, destination)
	if err != nil {
		return DrawPath{}, userError(KindTransport, MsgRouteFetchFailed, err)
	}

	if len(path) == 0 {
		return DrawPath{}, userError(KindTransport, MsgRouteFetchFailed, errors.New("empty route"))
	}

	return DrawPath{Path: path}, nil
}

func resolveKind(err error) ErrorKind {
	if apierr.IsNotFound(err) {
		return KindNotFound
	}

	return KindTransport
}

// submit registers a request of kind, superseding the previous one, and
// runs it on a new goroutine.
func (p *Pipeline) submit(kind requestKind, fallback string, run func(context.Context, string) (Command, error)) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ""
	}

	if prev := p.latest[kind]; prev != nil {
		prev.cancel()
	}

	ctx, cancel := context.WithTimeout(p.ctx, p.options.RequestTimeout)
	req := &request{id: uuid.NewString(), kind: kind, cancel: cancel}
	p.latest[kind] = req

	p.wg.Add(1)

	go p.work(ctx, req, fallback, run)

	return req.id
}

func (p *Pipeline) work(ctx context.Context, req *request, fallback string, run func(context.Context, string) (Command, error)) {
	defer p.wg.Done()
	defer req.cancel()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		if p.isCurrent(req.id) && errors.Is(err, context.DeadlineExceeded) {
			p.emit(req, ShowError{Request: req.id, Err: userError(KindTransport, fallback, err)})
		}

		return
	}
	defer p.sem.Release(1)

	start := time.Now()
	cmd := p.run(ctx, req.id, fallback, run)

	if !p.isCurrent(req.id) {
		log.Printf("[%s] superseded after %v, dropping result", req.id, time.Since(start))

		return
	}

	log.Printf("[%s] done in %v", req.id, time.Since(start))
	p.emit(req, cmd)
}

// run calls fn, turning errors and panics into ShowError commands.
func (p *Pipeline) run(ctx context.Context, id, fallback string, fn func(context.Context, string) (Command, error)) (cmd Command) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[%s] recovered from panic: %v\n%s", id, r, debug.Stack())

			cmd = ShowError{Request: id, Err: userError(KindInternal, fallback, fmt.Errorf("panic: %v", r))}
		}
	}()

	c, err := fn(ctx, id)
	if err != nil {
		var ue *UserError
		if !errors.As(err, &ue) {
			ue = userError(KindInternal, fallback, err)
		}

		log.Printf("[%s] failed (%s): %v", id, ue.Kind, ue)

		return ShowError{Request: id, Err: ue}
	}

	return c
}

func (p *Pipeline) emit(req *request, cmd Command) {
	select {
	case p.commands <- cmd:
	case <-p.ctx.Done():
		log.Printf("[%s] pipeline closed, dropping result", req.id)
	}
}

// isCurrent reports whether id is the latest request of its kind.
func (p *Pipeline) isCurrent(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, req := range p.latest {
		if req != nil && req.id == id {
			return true
		}
	}

	return false
}

// Drain applies commands to s until the queue is closed or ctx is done.
// Commands of superseded requests are skipped: a request may finish after
// a newer one was submitted, and the check here is what keeps its result
// off the map. Drain must be the only goroutine touching s.
func (p *Pipeline) Drain(ctx context.Context, s Surface) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd, ok := <-p.commands:
			if !ok {
				return nil
			}

			if !p.isCurrent(cmd.RequestID()) {
				continue
			}

			Apply(s, cmd)
		}
	}
}

// Close cancels the requests in flight, waits for them and closes the
// command queue. Entry points called afterwards do nothing.
func (p *Pipeline) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()

		return
	}

	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
	close(p.commands)
}
