package main

import "github.com/CosmoTheDev/hashms/cmd"

func main() {
	cmd.Execute()
}
