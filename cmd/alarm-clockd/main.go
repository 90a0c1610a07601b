package main

import "github.com/yoruboku/alarm2/cmd/alarm-clockd/cmd"

func main() {
	cmd.Execute()
}
