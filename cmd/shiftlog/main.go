package main

import (
	"os"

	// Embeds the IANA database so tenant timezones resolve on minimal images.
	_ "time/tzdata"

	"github.com/bnema/shiftlog/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
