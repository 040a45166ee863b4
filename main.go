/*
Copyright © 2025 caovinh
*/
package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/caovinh/manual-rag-be/cmd"
)

func main() {
	cmd.Execute()
}

func init() {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: could not load .env file: %v", err)
		}
	}
}
