package main

import (
	"context"
	goflag "flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"

	"photostamp/internal/config"
	"photostamp/internal/stamp"
)

func main() {
	fs := pflag.CommandLine
	fs.Int(config.KeyFontSize, config.DefaultFontSize, "font size in pixels")
	fs.String(config.KeyColor, config.DefaultColor, "text color: a name such as white, #RRGGBB, or #AARRGGBB (alpha first)")
	fs.String(config.KeyPosition, string(config.DefaultPosition), "text position: top-left, top-right, center, bottom-left or bottom-right")
	fs.String(config.KeyFontPath, "", "path to a TrueType/OpenType font; a bare name such as arial.ttf is searched in the system font directories")
	fs.Int(config.KeyJobs, 1, "number of images to process at once")
	cfgFile := fs.String("config", "", "optional config file (yaml, toml or json) with defaults for the flags above")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s <path> [flags]\n\nStamps the EXIF capture date onto an image, or every image under a directory,\nand writes the results to <dir>_watermark next to the input directory.\n\n", os.Args[0])
		fs.PrintDefaults()
	}

	klog.InitFlags(nil)
	fs.AddGoFlagSet(goflag.CommandLine)
	pflag.Parse()

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}

	v := viper.New()
	config.SetDefaults(v)
	if err := v.BindPFlags(fs); err != nil {
		klog.Exitf("bind flags: %v", err)
	}
	if *cfgFile != "" {
		v.SetConfigFile(*cfgFile)
		if err := v.ReadInConfig(); err != nil {
			klog.Exitf("read config %s: %v", *cfgFile, err)
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		klog.Exitf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := stamp.New(cfg)
	sum, err := s.Run(ctx, fs.Arg(0))
	if err != nil {
		klog.Exitf("%v", err)
	}

	if sum.Found > 0 {
		fmt.Printf("done: %d written, %d skipped without a date, %d failed\n", sum.Written, sum.Skipped, sum.Failed)
	}
	klog.Flush()
}
