// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"

	"samplex/internal/log"
)

// LoggingTransport writes every payload to the debug log as JSON. It is the
// fallback when no network transport is enabled.
type LoggingTransport struct{}

func NewLoggingTransport() *LoggingTransport {
	log.Debugf("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

func (lt *LoggingTransport) Send(data any) error {
	if log.GetLevel() > log.LevelDebug {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		log.Debugf("Transport: %T: %+v (%v)", data, data, err)
		return nil
	}
	log.Debugf("Transport: %s", raw)
	return nil
}

func (lt *LoggingTransport) Close() error { return nil }

var _ Transport = (*LoggingTransport)(nil)
