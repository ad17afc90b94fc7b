package main

import (
	"log"
	"os"

	echoapi "github.com/trezcool/shughuli/apps/api/echo"
	"github.com/trezcool/shughuli/core"
	"github.com/trezcool/shughuli/core/activity"
	emailsvc "github.com/trezcool/shughuli/services/email"
	sendgridmail "github.com/trezcool/shughuli/services/email/sendgrid"
	ledgersvc "github.com/trezcool/shughuli/services/ledger"
	logsvc "github.com/trezcool/shughuli/services/logger"
	"github.com/trezcool/shughuli/storage/database"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up logger
	var logger core.Logger
	if core.Conf.RollbarToken != "" {
		logger = logsvc.NewRollbarLogger(std, core.Conf)
		logger.Enable(!core.Conf.Debug)
	} else {
		logger = logsvc.NewStdLogger(std)
	}

	// set up DB
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		logger.Fatal("creating database", err)
	}
	db, err := database.Open(core.Conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer db.Close()
	if err := database.Migrate(db.DB); err != nil {
		logger.Fatal("migrating database", err)
	}

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = sendgridmail.NewService(core.Conf.SendgridAPIKey, core.Conf.AppName, core.Conf.DefaultFromEmail.Address, logger)
	}
	actSvc := activity.NewService(
		database.NewActivityRepository(db),
		ledgersvc.NewHTTPLedger(core.Conf.Ledger),
		mailSvc,
		logger,
	)

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Address:     core.Conf.Server.Address(),
			ActivitySvc: actSvc,
			Logger:      logger,
		},
	)
	app.Start()
}
