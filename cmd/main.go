package main

import "github.com/dyike/divcalendar/internal/cli"

func main() {
	cli.Run()
}
