package main

import (
	"flag"
	"log"
	"runtime"
	"time"

	tbibm "github.com/n8thangreen/TB-IBM"
)

func main() {
	numCPUPtr := flag.Int("threads", runtime.NumCPU(), "number of CPU threads")
	loggerType := flag.String("logger", "", "override the configured data logger (stdout|csv|sqlite)")
	flag.Parse()

	runtime.GOMAXPROCS(*numCPUPtr)

	configPath := flag.Arg(0)
	if configPath == "" {
		log.Fatal("usage: tbsim [-threads N] [-logger stdout|csv|sqlite] config.toml [NAME=VALUE ...]")
	}

	conf, err := tbibm.LoadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *loggerType != "" {
		conf.LogParams.Sink = *loggerType
	}
	if err := conf.Validate(); err != nil {
		log.Fatalf("%+v", err)
	}

	params := tbibm.NewParamSet(map[string]float64{
		"randseq": float64(conf.SimParams.Seed),
	})
	skipped := params.Bind(flag.Args()[1:])
	for _, d := range params.Skipped() {
		log.Println(d.String())
	}
	if len(skipped) > 0 {
		log.Printf("skipped %d unrecognized or malformed parameter token(s)\n", len(skipped))
	}
	if seed, ok := params.ResolveSeed(); ok {
		conf.SimParams.Seed = seed
	}

	sim, err := conf.NewSimulation()
	if err != nil {
		log.Fatalf("%+v", err)
	}

	start := time.Now()
	log.Printf("starting run %s\n", sim.RunID)
	if err := sim.Run(); err != nil {
		log.Fatalf("%+v", err)
	}
	log.Printf("finished run %s in %s\n", sim.RunID, time.Since(start))

	counts := sim.DispatchCounts()
	log.Printf("dispatch counts: %v\n", counts)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	log.Printf("peak heap: %d bytes\n", mem.HeapSys)
}
