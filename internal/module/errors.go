package module

import "errors"

// ErrUnknownVerb is returned by Handle when the verb (or its argument shape)
// is not one the module understands. The session answers with the module's
// help text instead of treating it as a fault.
var ErrUnknownVerb = errors.New("module: unknown verb")
