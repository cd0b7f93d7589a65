// Package mongo provides MongoDB connection management: client creation
// with startup retry and a readiness healthcheck.
package mongo
