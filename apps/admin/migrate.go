package main

import (
	"github.com/trezcool/goose"

	appfs "github.com/trezcool/shughuli/fs"
)

var gooseRunFunc = goose.RunFS // mockable

// migrate passes a goose command (up, down, status, ...) through to the
// embedded activity/registration/result migrations.
func (cli *commandLine) migrate(args []string) error {
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.db, appfs.FS, "migrations", arguments...)
}
