package libemit

type logger interface {
	WithField(key string, value any) logger
	Debug(args ...any)
	Debugf(format string, args ...any)
	Debugln(args ...any)
	Info(args ...any)
	Infof(format string, args ...any)
	Infoln(args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
	Warnln(args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
	Errorln(args ...any)
}

// nopLogger discards everything. It is the default for emitters and registries
// built without a logger option.
type nopLogger struct{}

func (nopLogger) WithField(string, any) logger { return nopLogger{} }
func (nopLogger) Debug(...any)                 {}
func (nopLogger) Debugf(string, ...any)        {}
func (nopLogger) Debugln(...any)               {}
func (nopLogger) Info(...any)                  {}
func (nopLogger) Infof(string, ...any)         {}
func (nopLogger) Infoln(...any)                {}
func (nopLogger) Warn(...any)                  {}
func (nopLogger) Warnf(string, ...any)         {}
func (nopLogger) Warnln(...any)                {}
func (nopLogger) Error(...any)                 {}
func (nopLogger) Errorf(string, ...any)        {}
func (nopLogger) Errorln(...any)               {}
