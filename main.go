package main

import "github.com/drgolem/stretchplayer/cmd"

func main() {
	cmd.Execute()
}
