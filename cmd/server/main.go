package main

import "abetcrm/internal/app"

// @title                       AbetCRM API
// @version                     1.0
// @description                 Leads, contacts, accounts, opportunities and activities with custom fields and an audit trail.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	app.Run()
}
