package main

import (
	"flag"
	"log"
	"ntpbg/internal/di"
	"ntpbg/internal/structures"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "./config.yaml", "path to the YAML config file")
	flag.BoolVar(&flags.DebugMode, "debug", false, "enable debug mode")
	flag.Parse()

	if _, err := di.InitApp(flags); err != nil {
		log.Fatalf("ntpbg: %s", err)
	}
}
