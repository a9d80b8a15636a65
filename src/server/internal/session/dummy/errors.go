package dummy

import "github.com/cockroachdb/errors"

var NetworkFailure = errors.New("The network is down")
