package main

import (
	"finhelp/cmd/handlers"
	"finhelp/internal/logger"
)

func main() {
	logger.Init() // Initialize the logger
	handlers.Execute()
}
