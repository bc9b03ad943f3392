package main

import "analysis_backend/internal/app/cli"

func main() {
	cli.Execute()
}
