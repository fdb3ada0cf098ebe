package eval

// Status codes returned by the shell itself.
//
// The practice of using 0 for no error is really well known, so we don't define
// a constant for it; code should just use 0.
const (
	// Any error without a more specific status.
	StatusError = 1
	// Same as dash and bash.
	StatusSyntaxError = 2

	// Not sure what other shells use for the following error conditions.
	StatusPipeError = 100
	StatusWaitError = 101

	// Specified by POSIX.
	StatusCommandNotExecutable = 126
	StatusCommandNotFound      = 127
	StatusSignalBase           = 128
)
