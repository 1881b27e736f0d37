package state

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"atomcss/atomic"
	"atomcss/registry"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start: time.Now(),
		Log:   zap.NewNop(),
	}
}

// PrepareEngine builds condition and utility tables from loaded configuration
// and the engine working with them. Subsequent calls are no-ops.
func (e *LocalEnv) PrepareEngine() (*atomic.Engine, error) {
	if e.Engine != nil {
		return e.Engine, nil
	}
	if e.Cfg == nil {
		return nil, errors.New("configuration is not loaded")
	}

	reg, err := registry.New(e.Cfg)
	if err != nil {
		return nil, err
	}
	e.Registry = reg
	e.Engine = reg.Engine(atomic.WithLogger(e.Log))

	e.Log.Debug("Engine prepared",
		zap.Int("conditions", len(reg.Conditions.Names())),
		zap.Int("utilities", len(reg.Utilities.Names())))
	return e.Engine, nil
}
