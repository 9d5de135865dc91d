// Command stereocal inspects and maintains stereo camera calibrations: it
// loads the three calibration files of a stereo pair, converts between depth
// and disparity, rescales calibrations for resized images, plots the depth
// response and keeps a history of calibrations in SQLite.
package main

import (
	"log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("stereocal: %v", err)
	}
}
