package core

// Logger is any service that can report app messages & errors at various levels.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Operator identifies the logged-in platform operator on error reports.
type Operator struct {
	ID    string
	Name  string
	Email string
}
