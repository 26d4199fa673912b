// Package logger provides structured logging functionality for qrcdl.
//
// Features:
//   - Multiple log levels (TRACE, DEBUG, INFO, WARN, ERROR)
//   - Component-based filtering
//   - Multiple output formats (text, JSON, color)
//   - Size and age based rotation for file outputs
//   - Configuration validated against an embedded JSON schema
//
// Usage:
//
//	log := logger.WithComponent(logger.ComponentQQMusic)
//
//	log.Info("Fetched lyric", map[string]interface{}{
//		"song_id": 97773,
//		"channels": 3,
//	})
//
//	cfg := logger.EnvironmentConfig() // QRCDL_LOG_* overrides
//	l, err := logger.CreateLoggerFromConfig(cfg)
//	if err == nil {
//		logger.SetGlobalLogger(l)
//	}
//
// Components:
//   - ComponentApp: command line flow
//   - ComponentQRC: payload decoding
//   - ComponentASS: subtitle conversion
//   - ComponentQQMusic: lyric service API
//   - ComponentClient: HTTP client
//   - ComponentCache: lyric cache
//   - ComponentWatcher: directory watcher
package logger
