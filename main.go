package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/op/go-logging"

	"github.com/KitchenMishap/pudding-prefixcode/compress"
	"github.com/KitchenMishap/pudding-prefixcode/container"
	"github.com/KitchenMishap/pudding-prefixcode/jobs"
	"github.com/KitchenMishap/pudding-prefixcode/report"
)

const progName = "pudding-prefixcode"

var log = logging.MustGetLogger("main")

func startLogging(level string) error {
	backend := logging.NewLogBackend(os.Stderr, progName+": ", 0)
	formatSpec := "%{color:bold}%{level:6s}%{color:reset} %{module:-10s} | %{message}"
	formatter := logging.MustStringFormatter(formatSpec)
	formatted := logging.NewBackendFormatter(backend, formatter)
	leveled := logging.AddModuleLevel(formatted)
	lvl, err := logging.LogLevel(level)
	if err != nil {
		return err
	}
	leveled.SetLevel(lvl, "")
	logging.SetBackend(leveled)
	return nil
}

func main() {
	var sModeFlag = flag.String("mode", "analyse", "analyse, compress, decompress or dot")
	var sInFlag = flag.String("in", "", "Input file")
	var sOutFlag = flag.String("out", "", "Output file, - for stdout")
	var sFormatFlag = flag.String("format", "packed", "Payload format: packed or text")
	var iWorkersFlag = flag.Int("workers", 0, "Parallel streams when compressing several files")
	var iLimitFlag = flag.Int("limit", 20, "Rows per table in analyse mode, 0 for all")
	var bVerifyFlag = flag.Bool("verify", false, "Decode every archive again before writing it")
	var sLogFlag = flag.String("log", "info", "Log level: debug, info, warning, error")
	flag.Parse()

	var err error
	if err = startLogging(*sLogFlag); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	format, err := container.ParseFormat(*sFormatFlag)
	if err != nil {
		log.Error(err)
		os.Exit(2)
	}
	cfg := jobs.Config{Format: format, Workers: *iWorkersFlag, Verify: *bVerifyFlag}

	switch *sModeFlag {
	case "analyse":
		err = jobs.Analyse(os.Stdout, *sInFlag, *iLimitFlag)
	case "compress":
		err = compressCommand(cfg, *sInFlag, *sOutFlag, flag.Args())
	case "decompress":
		out := *sOutFlag
		if out == "" {
			out = strings.TrimSuffix(*sInFlag, jobs.Extension)
			if out == *sInFlag {
				out = "-"
			}
		}
		err = jobs.DecompressFile(*sInFlag, out)
	case "dot":
		out := *sOutFlag
		if out == "" {
			out = "-"
		}
		err = jobs.RenderTree(*sInFlag, out)
	default:
		err = fmt.Errorf("unknown mode %q", *sModeFlag)
	}

	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

// compressCommand handles one -in/-out pair, or every remaining argument in parallel.
func compressCommand(cfg jobs.Config, in, out string, rest []string) error {
	c, err := jobs.NewCompressor(cfg)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		if out == "" {
			out = in + jobs.Extension
		}
		stats, err := c.CompressFile(in, out)
		if err != nil {
			return err
		}
		return report.Stats(os.Stdout, stats)
	}

	paths := rest
	if in != "" {
		paths = append([]string{in}, rest...)
	}
	results, err := c.CompressMany(context.Background(), paths)
	if err != nil {
		return err
	}
	var total compress.CompressionStats
	for _, r := range results {
		total.Add(r.Stats)
	}
	return report.Stats(os.Stdout, total)
}
