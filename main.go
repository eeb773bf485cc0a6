package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/anchorageoss/haloverify/cmd"
)

func main() {
	app := &cli.Command{
		Name:  "halo-verify",
		Usage: "Verify HaLo NFC tag dynamic URL signatures",
		Flags: cmd.LoggingFlags(),
		Commands: []*cli.Command{
			cmd.VerifyCommand(),
			cmd.BatchCommand(),
			cmd.DecodeCommand(),
			cmd.AttestationCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
