package main

import "fmt"

// demoFunc implements one of the built-in register demo procedures.
type demoFunc func(args []any, argsKw map[string]any) ([]any, map[string]any, error)

func demoHandler(kind string) (demoFunc, error) {
	switch kind {
	case "echo":
		return demoEcho, nil
	case "reverse":
		return demoReverse, nil
	default:
		return nil, fmt.Errorf("unknown demo procedure kind %q (want echo or reverse)", kind)
	}
}

// demoEcho returns its arguments unchanged.
func demoEcho(args []any, argsKw map[string]any) ([]any, map[string]any, error) {
	return args, argsKw, nil
}

// demoReverse reverses a lone string argument; for any other
// arguments it reverses the order of the positional arguments.
func demoReverse(args []any, argsKw map[string]any) ([]any, map[string]any, error) {
	if len(args) == 1 {
		if s, ok := args[0].(string); ok {
			runes := []rune(s)
			for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
				runes[i], runes[j] = runes[j], runes[i]
			}
			return []any{string(runes)}, argsKw, nil
		}
	}

	reversed := make([]any, len(args))
	for i, a := range args {
		reversed[len(args)-1-i] = a
	}
	return reversed, argsKw, nil
}
