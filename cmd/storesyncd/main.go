// Package main is the entry point for the storesync daemon.
package main

import (
	"os"

	"github.com/alghazaly/storesync/cmd/storesyncd/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
