package main

import (
	"github.com/blae-code/nomad-nexus-beta-sub003/config"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/api"
)

func main() {
	cfg := config.LoadConfig()
	api.StartServer(cfg)
}
