package main

import (
	"github.com/OFFIS-RIT/kiwi-linker/internal/server"
	"github.com/OFFIS-RIT/kiwi-linker/internal/util"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/logger"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
