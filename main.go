package main

import (
	"errors"
	"fmt"
	"os"

	"imgcompare/compare"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, compare.ErrStrict) {
			fmt.Fprintln(os.Stderr, "Run without --strict to skip unreadable images.")
		}
		os.Exit(1)
	}
}
