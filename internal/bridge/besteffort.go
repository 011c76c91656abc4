package bridge

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// BestEffort runs a side call whose outcome must not change the response
// already decided for the caller. Errors and panics are logged under the
// policy name and swallowed; the return value reports whether fn succeeded.
func BestEffort(log logrus.FieldLogger, name string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			if log != nil {
				log.WithField("best_effort", name).WithError(fmt.Errorf("panic: %v", r)).Warn("best-effort call failed")
			}
		}
	}()

	if err := fn(); err != nil {
		if log != nil {
			log.WithField("best_effort", name).WithError(err).Warn("best-effort call failed")
		}
		return false
	}
	return true
}
