// Command warden is the pr-warden CLI: a PR review pipeline combining an
// LLM reviewer with deterministic static analyzers and a cross-repo code
// index, fronted by spf13/cobra subcommands.
package main

import (
	"fmt"
	"os"
)

func main() {
	err := Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	if code := exitCodeFor(err); code != 0 {
		os.Exit(code)
	}
}
