// Package main is the entry point of the silverrock server.
// It sets up and starts the server by calling initialization functions from the internal package.
package main

import (
	"silverrock/internal"
)

func main() {
	internal.Init()
}
