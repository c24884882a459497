// Package adapter integrates the capacity ledger with external
// monitoring systems.
package adapter

import (
	"errors"

	"github.com/heptiolabs/healthcheck"

	"github.com/multihead/ledger-shm/pkg/ledger"
)

var errNotRegistered = errors.New("head has not registered its logical-device slot")

// LivenessHandler returns an HTTP health handler for one ledger
// attachment. Liveness verifies the region is still mapped with a
// sane header; readiness additionally requires the head to have
// registered its logical-device slot.
func LivenessHandler(l *ledger.Ledger) healthcheck.Handler {
	h := healthcheck.NewHandler()
	h.AddLivenessCheck("ledger-mapped", l.Healthy)
	h.AddReadinessCheck("head-registered", func() error {
		if err := l.Healthy(); err != nil {
			return err
		}
		if !l.Registered() {
			return errNotRegistered
		}
		return nil
	})
	return h
}
