package eval

import (
	"fmt"
	"strconv"
)

// Special builtins can return an error that terminates evaluation.
var specialBuiltins = map[string]func(*builtinContext, []string) (int, error){
	"exit": exit,
}

func exit(bc *builtinContext, args []string) (int, error) {
	cmd := &builtinCommand{
		Use:   "exit [CODE]",
		Short: "Exit the shell with CODE, or 0.",
	}
	var request *ExitRequest
	status := cmd.Run(bc, args, func(operands []string) int {
		switch len(operands) {
		case 0:
			request = &ExitRequest{0}
		case 1:
			code, err := strconv.Atoi(operands[0])
			if err != nil {
				fmt.Fprintf(bc.stderr, "exit: numeric argument required, got %q\n", operands[0])
				request = &ExitRequest{StatusSyntaxError}
				return StatusSyntaxError
			}
			request = &ExitRequest{code}
			return code
		default:
			fmt.Fprintln(bc.stderr, "exit: too many arguments")
			return StatusError
		}
		return 0
	})
	if request != nil {
		return request.Code, request
	}
	return status, nil
}
