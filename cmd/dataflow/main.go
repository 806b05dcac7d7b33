// The dataflow tool solves gen/kill data-flow analysis problems over control
// flow graphs stored in Graphviz DOT or HCL files.
//
// Usage:
//
//	dataflow solve [flags] FILE
//	dataflow step [flags] FILE
//	dataflow dot [flags] FILE
//	dataflow example [flags] NAME
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmd, a := newRootCmd()
	err := cmd.ExecuteContext(ctx)
	a.cleanup()
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}
