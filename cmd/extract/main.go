// cmd/extract/main.go
package main

import (
	"context"

	"github.com/law-makers/extract/internal/cli"
)

func main() {
	cli.WatchSignals()
	cli.Execute(context.Background())
}
