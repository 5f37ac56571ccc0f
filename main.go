package main

import "github.com/Tiliavir/nanny-time-tracker/cmd"

func main() {
	cmd.Execute()
}
