package main

import "studyhub_backend/internal/app"

func main() {
	app.Run()
}
