// Public domain.

package main

import "github.com/soniakeys/radxfer/internal/rxprog"

func main() {
	rxprog.Main()
}
