// Package log provides the leveled logging used across the dispatch
// framework, plus parameter redaction for safe error logging.
//
// Two implementations ship with the package: DefaultLogger on the
// standard library log package, and GologLogger wrapping
// github.com/kataras/golog for applications already using it. A
// package-level default logger lets components log without threading a
// logger through every constructor; SetDefaultLogger swaps it.
//
//	logger := log.NewDefaultLogger(log.LogLevelInfo)
//	log.SetDefaultLogger(logger)
//
//	log.Info("dispatch service=%s action=%s", "slack", "post_message")
//
// # Redaction
//
// Dispatch failures are logged together with the request parameters.
// RedactParams strips anything secret-shaped first:
//
//	log.Error("dispatch failed service=%s action=%s params=%v err=%v",
//		service, action, log.RedactParams(params), err)
//
// Keys containing "token", "key", "secret", "password", "authorization",
// "credential" or "cookie" are replaced with "[REDACTED]", recursively
// through nested maps.
package log
