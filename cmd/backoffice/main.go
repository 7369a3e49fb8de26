package main

import "github.com/hammad-gujjar/dacci-apparel-sub000/internal/cli"

func main() {
	cli.Execute()
}
