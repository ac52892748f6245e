package cmd

import (
	"github.com/madmann91/ratrace/log"
	"github.com/urfave/cli"
)

var logger = log.New("ratrace")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
