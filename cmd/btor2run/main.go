package main

import app "btor2run/internal/app"

func main() {
	app.Run()
}
