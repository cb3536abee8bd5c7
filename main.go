package main

import "meeting-attendance/cmd"

func main() {
	cmd.Execute()
}
