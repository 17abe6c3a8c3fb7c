// Package server hosts the Fiber diagnostics service that sits next to the
// item cache. It builds the application, attaches recover, request-id and
// access-log middleware, and leaves route registration to the routes package
// so handlers receive the module registry and cache as explicit dependencies.
// Keep exports narrow; the cache and registry remain in-process APIs and the
// HTTP surface only observes or flushes them.
package server
