package main

import "qsmath/cmd"

var version string = "<dev>"

func main() {
	cmd.Execute(version)
}
