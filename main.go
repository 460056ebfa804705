package main

import "github.com/KaramelBytes/aerofit-cli/cmd"

func main() {
	cmd.Execute()
}
