package main

import (
	"os"

	"github.com/Seashocker17/quiz-arena/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
