package main

import (
	"flag"
	"fmt"
	"log"

	tbibm "github.com/n8thangreen/TB-IBM"
)

func main() {
	var inPath string
	flag.StringVar(&inPath, "in", "nextseed.rnd", "path to a saved seed file")
	var setTo int64
	flag.Int64Var(&setTo, "set", -1, "overwrite the saved seed with this value instead of reading it")
	flag.Parse()

	if setTo >= 0 {
		if err := tbibm.SaveNextSeed(inPath, uint32(setTo)); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%d\n", setTo)
		return
	}

	seed, found, err := tbibm.LoadNextSeed(inPath)
	if err != nil {
		log.Fatal(err)
	}
	if !found {
		log.Fatalf("no saved seed at %q", inPath)
	}
	fmt.Printf("%d\n", seed)
}
