// SPDX-License-Identifier: MIT

// Package transport publishes analyzer snapshots to consumers outside the
// process. Transports are fed from the app loop at the publish interval and
// must never block it.
package transport

import "errors"

// Transport defines a generic interface for sending processed data.
// Implementations must be safe for concurrent use and must not block.
type Transport interface {
	Send(data any) error
	Close() error
}

// SpectrumSource is implemented by payloads that carry spectrum bins.
// Transports with a binary wire format publish only these.
type SpectrumSource interface {
	SpectrumBins() []float32
}

// Multi sends to every transport in order.
type Multi []Transport

func (m Multi) Send(data any) error {
	var errs []error
	for _, t := range m {
		if err := t.Send(data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every transport, even when some fail.
func (m Multi) Close() error {
	var errs []error
	for _, t := range m {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Transport = Multi(nil)
