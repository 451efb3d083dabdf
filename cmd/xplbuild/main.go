package main

import "github.com/xpautothrottle/xplbuild/cmd/xplbuild/internal"

func main() {
	internal.Execute()
}
