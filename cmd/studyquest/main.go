// Command studyquest is the offline scoring calculator.
package main

import "studyquest/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
