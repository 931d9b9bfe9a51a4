// Command authtoken prints a bearer credential for an address, signed with
// the server's AUTH_SECRET (read from the environment or ENV_FILE).
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/atmx/yield-farm/internal/auth"
	"github.com/atmx/yield-farm/internal/config"
	"github.com/atmx/yield-farm/internal/model"
)

var (
	addressFlag = &cli.StringFlag{
		Name:     "address",
		Usage:    "address the credential acts as",
		Required: true,
	}
	ttlFlag = &cli.DurationFlag{
		Name:  "ttl",
		Usage: "credential lifetime; 0 never expires",
		Value: 0,
	}
	envFileFlag = &cli.StringFlag{
		Name:    "env-file",
		Usage:   "settings file to load before the environment",
		EnvVars: []string{"ENV_FILE"},
	}
)

func main() {
	app := &cli.App{
		Name:  "authtoken",
		Usage: "issue a yield-farm API credential",
		Flags: []cli.Flag{addressFlag, ttlFlag, envFileFlag},
		Action: func(ctx *cli.Context) error {
			cfg, err := config.Load(ctx.String(envFileFlag.Name))
			if err != nil {
				return err
			}
			issuer, err := auth.NewIssuer([]byte(cfg.AuthSecret))
			if err != nil {
				return err
			}
			raw, err := issuer.Issue(model.Address(ctx.String(addressFlag.Name)), ctx.Duration(ttlFlag.Name))
			if err != nil {
				return err
			}
			fmt.Println(raw)
			return nil
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
