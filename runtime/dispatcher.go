// Package runtime wires a loaded document's PipelineMap to a module bus and
// drains an inbound package queue with a pool of worker goroutines, grounded
// on original_source/phlow-runtime/src/runtime.rs (Runtime::run,
// Runtime::listener) and the teacher's runner/executor.go errgroup-managed
// worker fan-out.
package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	phctx "github.com/phlowdotdev/phlow/context"
	"github.com/phlowdotdev/phlow/debugctl"
	"github.com/phlowdotdev/phlow/engine"
	"github.com/phlowdotdev/phlow/eventlog"
	"github.com/phlowdotdev/phlow/module"
	"github.com/phlowdotdev/phlow/value"
)

// Request is one unit of work handed to the dispatcher: the triggering
// input value plus a reply channel the assigned worker writes the
// pipeline's result to. Unlike module.Package's buffered per-module channel,
// this inbound queue (Dispatcher.Inbound) is unbuffered: a send blocks until
// a worker is free to receive it.
type Request struct {
	Main  value.Value
	Reply chan Reply
}

// Reply is what a worker sends back after running the entry pipeline once.
type Reply struct {
	Result engine.Result
	Err    error
}

// Dispatcher owns a pool of workers draining Inbound and running the
// document's entry pipeline for each request that arrives.
type Dispatcher struct {
	Bus      module.Bus
	Workers  int
	Logger   *zap.Logger
	Metrics  *Metrics
	EventLog *eventlog.Logger

	// Debug is the §4.8 single-step gate; nil (the default) means no
	// pipeline ever suspends. cmd/phlow sets this when --debug is passed.
	Debug *debugctl.Controller

	// OnDispatch, when set, is called once per handled request with the
	// triggering value, its execution duration and outcome — the hook
	// cmd/phlow uses for PHLOW_SPAN-gated per-pipeline span logging. Left
	// nil it costs nothing.
	OnDispatch func(main value.Value, dur time.Duration, err error)

	Inbound chan Request

	mu        sync.RWMutex
	pipelines engine.PipelineMap
}

// New builds a Dispatcher with workers goroutines (minimum 1), wiring bus
// into every module-calling step of pm.
func New(pm engine.PipelineMap, bus module.Bus, workers int, logger *zap.Logger, metrics *Metrics) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	pm.BindBus(bus)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		pipelines: pm,
		Bus:       bus,
		Workers:   workers,
		Logger:    logger,
		Metrics:   metrics,
		Inbound:   make(chan Request),
	}
}

// Pipelines returns the PipelineMap currently in use.
func (d *Dispatcher) Pipelines() engine.PipelineMap {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.pipelines
}

// SetPipelines swaps in pm as the document to run for future requests,
// wiring d.Bus into it first. In-flight requests keep running against the
// pipelines they started with; only requests handled after the swap see
// pm — the --watch recompile path in cmd/phlow.
func (d *Dispatcher) SetPipelines(pm engine.PipelineMap) {
	pm.BindBus(d.Bus)
	d.mu.Lock()
	d.pipelines = pm
	d.mu.Unlock()
}

// Run drains Inbound with Workers goroutines until ctx is cancelled or
// Inbound is closed, mirroring runtime.rs's listener: one
// tokio::task::spawn_blocking per package_consumer_count, each pulling from
// the same inbound channel until it's closed.
func (d *Dispatcher) Run(ctx context.Context) error {
	eg, egCtx := errgroup.WithContext(ctx)
	for i := 0; i < d.Workers; i++ {
		eg.Go(func() error {
			return d.worker(egCtx)
		})
	}
	return eg.Wait()
}

func (d *Dispatcher) worker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req, ok := <-d.Inbound:
			if !ok {
				return nil
			}
			d.handle(ctx, req)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, req Request) {
	start := time.Now()
	pctx := phctx.New(req.Main, value.Null())

	d.Logger.Debug("dispatching package", zap.Any("main", req.Main))

	result, err := engine.Run(ctx, d.Pipelines(), pctx, d.Debug)

	outcome := "ok"
	evResult := eventlog.ResultPass
	evError := ""
	if err != nil {
		outcome = "error"
		evResult = eventlog.ResultFail
		evError = err.Error()
		d.Logger.Error("pipeline execution failed", zap.Error(err))
	}
	dur := time.Since(start)
	if d.Metrics != nil {
		d.Metrics.PipelinesTotal.WithLabelValues(outcome).Inc()
		d.Metrics.PipelineDuration.WithLabelValues(outcome).Observe(dur.Seconds())
	}
	d.EventLog.RecordEvent(eventlog.Event{
		ID:       engine.NewID(),
		Type:     eventlog.EventTypePipeline,
		Duration: dur.Seconds(),
		Result:   evResult,
		Error:    evError,
	})
	if d.OnDispatch != nil {
		d.OnDispatch(req.Main, dur, err)
	}

	if req.Reply != nil {
		req.Reply <- Reply{Result: result, Err: err}
	}
}

// RunOnce runs the entry pipeline a single time against main, without going
// through the worker pool — the embedded / --var-main / one-shot use
// described in SPEC_FULL.md §6 and runtime.rs's run_script's oneshot=true
// path. debug is nilable, same contract as Dispatcher.Debug.
func RunOnce(ctx context.Context, pm engine.PipelineMap, bus module.Bus, main value.Value, debug *debugctl.Controller) (engine.Result, error) {
	pm.BindBus(bus)
	pctx := phctx.New(main, value.Null())
	return engine.Run(ctx, pm, pctx, debug)
}

// Dispatch sends req to the worker pool and blocks for its reply, failing
// fast if ctx is cancelled first or the dispatcher has no room to accept
// the request before ctx expires.
func (d *Dispatcher) Dispatch(ctx context.Context, main value.Value) (engine.Result, error) {
	req := Request{Main: main, Reply: make(chan Reply, 1)}
	select {
	case d.Inbound <- req:
	case <-ctx.Done():
		return engine.Result{}, fmt.Errorf("runtime: dispatch cancelled: %w", ctx.Err())
	}
	select {
	case reply := <-req.Reply:
		return reply.Result, reply.Err
	case <-ctx.Done():
		return engine.Result{}, fmt.Errorf("runtime: dispatch cancelled: %w", ctx.Err())
	}
}

// Close signals workers to stop once Inbound drains.
func (d *Dispatcher) Close() {
	close(d.Inbound)
}
