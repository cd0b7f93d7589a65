// Package notifications implements the real-time notification pipeline of
// the shelfshare platform: durable storage with pluggable backends,
// best-effort live delivery and per-user read-state tracking.
//
// # Architecture
//
//   - Storage: persistence port with in-memory, PostgreSQL and MongoDB
//     adapters, selected once at process start
//   - Dispatcher: resolves recipients against the presence registry and
//     pushes over a transport Sink, fire and forget
//   - Service: orchestrates storage and dispatcher
//
// # Delivery model
//
// Creation is the authoritative phase: the notification is stored first,
// then pushed to whichever recipients hold a live connection. The push
// path has zero durability guarantee - no retries, no queueing. All
// actual delivery guarantees come from combining it with the pull-based
// reconciliation read (Service.ListFor), which clients perform on every
// connect, reconnect and periodic refresh.
//
// # Basic usage
//
//	storage := notifications.NewMemoryStorage()
//	registry := presence.NewRegistry()
//	dispatcher := notifications.NewDispatcher(registry, sink, storage)
//	svc := notifications.NewService(storage, dispatcher)
//
//	n, err := svc.Create(ctx, notifications.CreateInput{
//	    Title:     "Maintenance",
//	    Message:   "5 min downtime",
//	    Kind:      notifications.KindWarning,
//	    Scope:     notifications.ScopeGlobal,
//	    CreatedBy: "admin",
//	})
package notifications
