// cmd/query-cli/main.go
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(defaultOpenEngine).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
