package main

import "github.com/samar-hassan/django-oscar-odin/cmd/oscarodin/cmd"

func main() {
	cmd.Execute()
}
