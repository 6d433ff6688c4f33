package main

import "github.com/sportshop/ecommerce/cmd"

func main() {
	cmd.Start()
}
