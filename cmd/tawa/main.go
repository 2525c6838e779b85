// Package main is the entry point of the session service (HTTP + WebSocket).
package main

import (
	"log"

	"github.com/KokopelliMusic/Tawa-3/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
