package xwrap

import (
	"fmt"
	"log"
	"os"
)

// PrintLog controls whether xwrap writes warnings and dropped protocol
// errors to its logger. By default, it is enabled.
var PrintLog = true

// logger wraps a *log.Logger so output can be switched off globally.
type logger struct {
	*log.Logger
}

func newLogger() logger {
	return logger{log.New(os.Stderr, "XWRAP: ", log.Lshortfile)}
}

func (lg logger) Printf(format string, v ...interface{}) {
	if PrintLog {
		lg.Logger.Output(2, fmt.Sprintf(format, v...))
	}
}

func (lg logger) Println(v ...interface{}) {
	if PrintLog {
		lg.Logger.Output(2, fmt.Sprintln(v...))
	}
}
