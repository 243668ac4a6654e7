package main

import (
	"os"

	"github.com/pulsedeck/pulsedeck/server/dashboardservice"
)

func main() {
	if err := dashboardservice.Run(); err != nil {
		os.Exit(1)
	}
}
