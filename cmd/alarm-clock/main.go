package main

import "github.com/yoruboku/alarm2/cmd/alarm-clock/cmd"

func main() {
	cmd.Execute()
}
