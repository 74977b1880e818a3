package main

import (
	"os"

	"github.com/partdesk/partdesk/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
