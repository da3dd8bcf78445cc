// Command gateway launches the dual-pane file manager.
package main

import (
	"os"

	"gateway/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
