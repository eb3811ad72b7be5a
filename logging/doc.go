// Package logging defines the Logger interface taken by the router, the
// executor, the tool registry and the orchestrator, plus two slog backed
// implementations:
//
//   - NewSlogAdapter exposes any *slog.Logger as a Logger
//   - StructuredLogger adds component and run scoping together with
//     helpers for routing, model call and tool call records
//
// NoOpLogger discards everything and is the default everywhere.
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	r := router.New(cfg, func(o *router.Options) { o.Logger = logger.WithComponent("router") })
package logging
