package main

import (
	"telehealth-consultation-service/cmd/bootstrap"

	"github.com/sirupsen/logrus"
)

func main() {
	app, err := bootstrap.New()
	if err != nil {
		logrus.Fatalf("Failed to initialize consultation service: %v", err)
	}

	app.Run()
}
