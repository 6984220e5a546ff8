package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/acqbridge/internal/config"
	"github.com/dmitrijs2005/acqbridge/internal/host"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := host.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
