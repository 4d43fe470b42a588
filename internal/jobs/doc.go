// Package jobs runs board work outside the HTTP request that asked for it.
//
// The Dispatcher executes store commands issued by the HTML surface
// fire-and-forget: the form post redirects straight away and a rejection is
// recorded for the viewer, keyed by post, to be shown on their next render.
//
//	d := jobs.NewDispatcher(jobs.DispatcherConfig{
//	    Timeout:     cfg.Board.DispatchTimeout,
//	    Concurrency: cfg.Board.DispatchConcurrency,
//	    Errors:      errorStore,
//	    EventHub:    hub,
//	})
//	defer d.Close() // drains in-flight intents
//
// Intents never retry.
package jobs
