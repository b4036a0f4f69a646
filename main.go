package main

import "github.com/frahmantamala/access-control/cmd"

func main() {
	cmd.Execute()
}
