package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"

	"github.com/trezcool/shughuli/core/activity"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db     *sql.DB
	actSvc *activity.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS]      - run database migrations (goose commands)")
	fmt.Println("  distribute -activity ID     - credit reward points to an activity's winners")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	distributeCmd := flag.NewFlagSet("distribute", flag.ExitOnError)
	distributeActivity := distributeCmd.String("activity", "", "The activity ID whose winners get their points.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "distribute":
		if err := distributeCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *distributeActivity == "" {
			distributeCmd.Usage()
			return errHelp
		}
		return cli.distribute(*distributeActivity)
	default:
		cli.printUsage()
		return errHelp
	}
}
