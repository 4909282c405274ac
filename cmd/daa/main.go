// Command daa reconciles observatory scheduling records against the partner
// archive's access registry.
package main

import "github.com/keckobservatory/koa-daa/internal/cmd"

func main() {
	cmd.Execute()
}
