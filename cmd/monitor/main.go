package main

import (
	"github.com/draftops/draftops/internal/process"
)

func main() {
	process.Run()
}
