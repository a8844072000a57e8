package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/phlowdotdev/phlow/debugctl"
	"github.com/phlowdotdev/phlow/engine"
	"github.com/phlowdotdev/phlow/eventlog"
	"github.com/phlowdotdev/phlow/loader"
	"github.com/phlowdotdev/phlow/module"
	"github.com/phlowdotdev/phlow/runtime"
	"github.com/phlowdotdev/phlow/value"
)

// Run loads opts.Script, wires a module bus and (optionally) a debug
// server, and runs the document once with opts.VarMain as the triggering
// input — the "no main module" auto-start path from
// original_source/phlow-runtime/src/runtime.rs::run.
func Run(ctx context.Context, opts *Options) error {
	if opts.Script == "" {
		return fmt.Errorf("phlow: --script is required")
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("phlow: build logger: %w", err)
	}
	defer logger.Sync()

	doc, err := loader.Load(opts.Script)
	if err != nil {
		return err
	}

	var bus module.Bus
	if opts.NATSUrl != "" {
		nb, err := module.NewNATSBus(opts.NATSUrl)
		if err != nil {
			return fmt.Errorf("phlow: connect nats: %w", err)
		}
		bus = nb
	} else {
		bus = module.NewLocalBus()
	}

	decls, err := module.ParseDecls(doc.Modules)
	if err != nil {
		return fmt.Errorf("phlow: parse modules: %w", err)
	}
	if err := module.Setup(bus, decls); err != nil {
		return fmt.Errorf("phlow: set up modules: %w", err)
	}

	var ctl *debugctl.Controller
	if opts.Debug {
		ctl = debugctl.New()
		srv, err := debugctl.Listen(fmt.Sprintf("127.0.0.1:%d", opts.DebugPort), ctl)
		if err != nil {
			return fmt.Errorf("phlow: start debug server: %w", err)
		}
		defer srv.Close()
		go srv.Serve()
		logger.Info("debug server listening", zap.String("addr", srv.Addr().String()))
	}

	metrics := runtime.NewMetrics(prometheus.DefaultRegisterer)
	evlog := eventlog.NewLogger("", opts.Script)

	main := value.Null()
	if opts.VarMain != "" {
		var v value.Value
		if err := v.UnmarshalJSON([]byte(opts.VarMain)); err != nil {
			return fmt.Errorf("phlow: parse --var-main: %w", err)
		}
		main = v
	} else {
		main = doc.Main
	}

	dispatcher := runtime.New(doc.Pipelines, bus, opts.Workers, logger, metrics)
	dispatcher.EventLog = evlog
	dispatcher.Debug = ctl

	if spanLoggingEnabled() {
		otel := otelEnabled()
		dispatcher.OnDispatch = func(main value.Value, dur time.Duration, err error) {
			raw, _ := main.MarshalJSON()
			fields := []zap.Field{
				zap.String("span.main", truncateSpanValue(string(raw))),
				zap.Duration("span.duration", dur),
			}
			if otel {
				fields = append(fields, zap.String("otel.kind", "pipeline"), zap.Bool("otel.error", err != nil))
			}
			logger.Info("pipeline span", fields...)
		}
	}

	if opts.Watch {
		watcher, err := loader.NewWatcher(opts.Script)
		if err != nil {
			return err
		}
		defer watcher.Close()
		go watchLoop(ctx, watcher, logger, dispatcher.SetPipelines)
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	runDone := make(chan error, 1)
	go func() { runDone <- dispatcher.Run(runCtx) }()

	result, err := dispatcher.Dispatch(ctx, main)
	cancelRun()
	<-runDone

	if finishErr := evlog.Finish(); finishErr != nil {
		logger.Warn("failed to flush event log", zap.Error(finishErr))
	}

	if err != nil {
		logger.Error("pipeline execution failed", zap.Error(err))
		return err
	}

	if result.HasOutput {
		out, err := result.Output.MarshalJSON()
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	}
	return nil
}

func watchLoop(ctx context.Context, w *loader.Watcher, logger *zap.Logger, onChange func(engine.PipelineMap)) {
	for {
		select {
		case <-ctx.Done():
			return
		case doc := <-w.Changes:
			logger.Info("script recompiled")
			onChange(doc.Pipelines)
		case err := <-w.Errors:
			logger.Error("watch error", zap.Error(err))
		}
	}
}
