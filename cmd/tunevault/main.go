package main

import (
	"github.com/tunevault/tunevault/internal/cli"
)

func main() {
	cli.Execute()
}
