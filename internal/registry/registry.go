// Package registry is the entry point to the MID submission module.
package registry

import (
	"swiftpolicy/internal/registry/service"
	"swiftpolicy/internal/registry/worker"
)

// Service is the MID queue.
type Service = service.Service

// New constructs the queue and its background worker, with enqueues kicking
// the worker.
func New(submissions service.Store, gw service.Gateway, locks service.Locker, workerOpts []worker.Option, opts ...service.Option) (*Service, *worker.Worker) {
	svc := service.New(submissions, gw, locks, opts...)
	w := worker.New(svc, workerOpts...)
	svc.OnEnqueue(w.Kick)
	return svc, w
}
