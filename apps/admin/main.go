package main

import (
	"log"
	"os"

	"github.com/trezcool/shughuli/core"
	"github.com/trezcool/shughuli/core/activity"
	emailsvc "github.com/trezcool/shughuli/services/email"
	ledgersvc "github.com/trezcool/shughuli/services/ledger"
	logsvc "github.com/trezcool/shughuli/services/logger"
	"github.com/trezcool/shughuli/storage/database"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	// set up services
	actSvc := activity.NewService(
		database.NewActivityRepository(db),
		ledgersvc.NewHTTPLedger(core.Conf.Ledger),
		emailsvc.NewConsoleService(),
		logsvc.NewStdLogger(logger),
	)

	// start CLI
	cli := commandLine{
		db:     db.DB,
		actSvc: actSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
