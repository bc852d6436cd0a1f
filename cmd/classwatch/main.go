// Classwatch deletes stale compiled classes when JVM sources change.
package main

import "github.com/albertocavalcante/classwatch/cmd/classwatch/internal/cli"

func main() {
	cli.Execute()
}
