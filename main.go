package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/spigell/assessment-recommender/cmd"
)

func main() {
	if err := fang.Execute(context.Background(), cmd.Root(), fang.WithVersion(cmd.Version())); err != nil {
		os.Exit(1)
	}
}
