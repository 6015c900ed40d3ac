package linear

import "errors"

var errInvalidKind = errors.New("linear: invalid constraint kind")
