package apperror

import "log"

// Log writes a classified error; high and critical errors are logged as
// errors, the rest as warnings.
func Log(err *Error, where string) {
	if err == nil {
		return
	}

	level := "[WARNING]"
	if err.Severity >= SeverityHigh {
		level = "[ERROR]"
	}

	if err.cause != nil {
		log.Printf("%s %s code=%s severity=%s message=%s context=%v cause=%v", level, where, err.Code, err.Severity, err.Message, err.Context, err.cause)
		return
	}
	log.Printf("%s %s code=%s severity=%s message=%s context=%v", level, where, err.Code, err.Severity, err.Message, err.Context)
}
