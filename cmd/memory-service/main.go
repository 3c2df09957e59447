package main

import (
	"fmt"
	"os"

	"github.com/ledgermind/ledgermind/memoryservice"
)

func main() {
	if err := memoryservice.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
