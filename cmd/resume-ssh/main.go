package main

import "github.com/gupta-akshay/portfolio-v2-sub000/internal/cli"

func main() {
	cli.Execute()
}
