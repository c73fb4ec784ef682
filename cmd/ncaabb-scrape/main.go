package main

import "github.com/pfrederiksen/ncaabb-scrape/internal/cli"

func main() {
	cli.Execute()
}
