package main

import (
	"github.com/helpdesk-labs/ticket/internal/app"
	"github.com/helpdesk-labs/ticket/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
