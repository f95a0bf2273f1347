package main

import "spinwmc/cmd"

func main() {
	cmd.Execute()
}
