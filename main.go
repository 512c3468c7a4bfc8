package main

import "github.com/omnibust/omnibust/cmd"

func main() {
	cmd.Execute()
}
