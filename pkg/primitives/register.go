package primitives

import "github.com/kristofer/stagevm/pkg/engine"

// RegisterAll installs every opcode handler this package implements
// into r. Hosts and tests call this on a fresh Registry before passing
// it to engine.New.
func RegisterAll(r *engine.Registry) {
	registerOperators(r)
	registerData(r)
	registerControl(r)
	registerSensing(r)
	registerMotion(r)
	registerLooks(r)
	registerEvents(r)
	registerProcedures(r)
	registerNoop(r)
}
