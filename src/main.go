package main

import "fintrack-server/src/commands"

func main() {
	commands.Execute()
}
