package main

import (
	"github.com/HamiGames/Lucid-sub007/internal/cmd"
)

func main() {
	cmd.Run()
}
