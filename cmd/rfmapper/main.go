package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/rfmapper/cmd/rfmapper/app"
)

func main() {
	app.NewApp().Run()
}
