// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"

	applog "loopcheck/internal/log"
)

// LoggingTransport implements the Transport interface by logging data at
// debug level.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Debugf("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the received data as JSON, falling back to %+v.
func (lt *LoggingTransport) Send(data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		applog.Debugf("Transport: (%T) %+v", data, data)
		return nil
	}
	applog.Debugf("Transport: %s", jsonData)
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
