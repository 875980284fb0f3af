package main

import (
	"os"

	splicecmder "github.com/papercomputeco/splice/cmd/splice"
)

func main() {
	cmd := splicecmder.NewSpliceCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
