package main

import "os"

func main() {
	defer func() {}()

	if len(os.Args) > 1 {
		os.Exit(2) // want "direct os.Exit call in main"
	}

	os.Exit(1) // want "direct os.Exit call in main"
}

func helper() {
	os.Exit(3)
}
