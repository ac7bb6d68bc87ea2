package main

import "github.com/Builder-Lawyers/mail-relay/cmd"

func main() {
	cmd.Init()
}
