package main

import (
	"os"

	"github.com/soinechankit/Soinech-CRM/cmd/crm/commands"
)

// @title                       Soinech CRM API
// @version                     1.0
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
