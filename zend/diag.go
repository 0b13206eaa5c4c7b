package zend

import (
	"fmt"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("zenda.engine")

// RaiseError reports a diagnostic on the engine's error channel. Warnings,
// notices, and deprecations log and continue; an error-level diagnostic also
// raises an Error exception, matching the promotion of fatal errors.
func RaiseError(level ErrorLevel, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	switch level {
	case ErrError:
		log.Errorf("%s", msg)
		ThrowClass(ErrorCE(), msg)
	case ErrWarning:
		log.Warningf("%s", msg)
	case ErrNotice:
		log.Noticef("%s", msg)
	case ErrDeprecated:
		log.Noticef("Deprecated: %s", msg)
	default:
		log.Infof("%s", msg)
	}
}
