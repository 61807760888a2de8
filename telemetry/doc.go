// Package telemetry builds the logger and the Prometheus metrics of the
// tempo commands.
//
// [Metrics] implements both coroutine.Observer and fsm.Observer, so engine
// activity is counted by installing it on the behavior systems:
//
//	metrics, _ := telemetry.NewMetrics(cfg.Metrics)
//	behavior.AddSystems(scheduler, behavior.Options{
//		Observer:      metrics,
//		StateObserver: metrics,
//	})
package telemetry
