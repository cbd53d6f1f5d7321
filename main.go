package main

import (
	"log"

	"paygate/cmd"

	_ "paygate/migrations"
)

func main() {
	if err := cmd.Start(); err != nil {
		log.Fatal(err)
	}
}
