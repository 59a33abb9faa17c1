package main

import "github.com/kozaktomas/face-locker/cmd"

func main() {
	cmd.Execute()
}
