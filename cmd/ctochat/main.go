// Command ctochat is a terminal front-end for the AI CTO chat. Sessions are
// kept locally; the server only relays each message with its prior turns.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
