//go:generate go tool templ generate -path web/templates

package main

import (
	"context"
	"os"

	"github.com/gamehub/gamehub/cmd"
)

func main() {
	if err := cmd.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
