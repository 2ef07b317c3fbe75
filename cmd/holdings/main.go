package main

import "github.com/ricardolopes/holdings-backend/cmd/holdings/cmd"

func main() {
	cmd.Execute()
}
