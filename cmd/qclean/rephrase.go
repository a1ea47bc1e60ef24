package main

import (
	"github.com/urfave/cli/v2"
)

func rephraseCmd() *cli.Command {
	return &cli.Command{
		Name:      "rephrase",
		Aliases:   []string{"fix"},
		Usage:     "Sanitize documents and apply spelling corrections to the text",
		ArgsUsage: "[path...]",
		Flags:     cleanFlags(),
		Action:    runRephraseCmd,
	}
}

func runRephraseCmd(c *cli.Context) error {
	return runCleanFlow(c, true)
}
