package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flaredns/common"
	"flaredns/config"
	"flaredns/ddns"
	"flaredns/flaredns"
	"flaredns/log"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

var (
	configPath = flag.StringP("config", "c", "", "path to optional config file (.toml/.yaml/.json)")
	email      = flag.StringP("email", "e", "", "Cloudflare account email")
	apiKey     = flag.StringP("api-key", "k", "", "Cloudflare account API key (global key; scoped tokens will NOT work)")
	hostname   = flag.StringP("hostname", "n", "", "fully-qualified record name to manage, e.g. mydyndns.mydomain.com")
	ipv4       = flag.BoolP("ipv4", "4", false, "manage the A record")
	ipv6       = flag.BoolP("ipv6", "6", false, "manage the AAAA record")
	interval   = flag.IntP("interval", "i", 60, "seconds between update cycles; 0 runs a single cycle and exits")
	debug      = flag.Bool("debug", false, "enable debug output")
	help       = flag.BoolP("help", "h", false, "Print help message")
)

var buildDate string

func init() {
	flag.Parse()
	if *help {
		fmt.Println(flag.CommandLine.FlagUsages())
		os.Exit(0)
	}
}

func getInitLogger() context.Context {
	var err error
	var logger *zap.Logger

	if *debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}

	if err != nil {
		fmt.Printf("Failed creating logger: %v\n", err)
		os.Exit(1)
	}

	return log.WithLogger(context.Background(), logger)
}

func getLogger(ctx context.Context, conf *config.Config) context.Context {
	var logOption zap.Config
	if *debug {
		logOption = zap.NewDevelopmentConfig()
	} else {
		logOption = zap.NewProductionConfig()
	}

	if conf.Log.Level != nil {
		logOption.Level.SetLevel(*conf.Log.Level)
	}

	if conf.Log.Encoding != nil {
		logOption.Encoding = *conf.Log.Encoding
	}

	if conf.Log.InfoPath != nil {
		logOption.OutputPaths = *conf.Log.InfoPath
	}

	if conf.Log.ErrorPath != nil {
		logOption.ErrorOutputPaths = *conf.Log.ErrorPath
	}

	logOption.InitialFields = map[string]interface{}{
		"hostname": conf.Service.Hostname,
	}

	logger, err := logOption.Build()
	if err != nil {
		log.S(ctx).Fatalw("cannot build real logger", zap.Error(err))
	}

	return log.WithLogger(context.Background(), logger)
}

// overlayFlags merges the command line over whatever the config file set.
// Flags win where given; the interval comes from the flag alone.
func overlayFlags(conf *config.Config) {
	if *email != "" {
		conf.Provider.Email = *email
	}
	if *apiKey != "" {
		conf.Provider.APIKey = *apiKey
	}
	if *hostname != "" {
		conf.Service.Hostname = *hostname
	}
	if *ipv4 {
		conf.Service.IPv4 = true
	}
	if *ipv6 {
		conf.Service.IPv6 = true
	}

	conf.Service.Interval = common.Duration(time.Duration(*interval) * time.Second)
}

func main() {
	ctx := getInitLogger()

	if buildDate != "" {
		log.S(ctx).Infow("flaredns starting", "variant", "release", "build_date", buildDate)
	} else {
		log.S(ctx).Infow("flaredns starting", "variant", "debug")
	}

	var conf config.Config
	if *configPath != "" {
		var err error
		conf, err = config.Load(*configPath)
		if err != nil {
			log.S(ctx).Fatalw("failed loading config", zap.Error(err))
		}
	}

	overlayFlags(&conf)

	if err := conf.Validate(); err != nil {
		log.S(ctx).Fatalw("invalid configuration", zap.Error(err))
	}

	ctx = getLogger(ctx, &conf)

	provider, err := ddns.Providers["cloudflare"](ctx, conf.Provider)
	if err != nil {
		log.S(ctx).Fatalw("cannot init provider", zap.Error(err))
	}

	resolver, err := flaredns.NewResolver(ctx, conf.Service.Families(), conf.Address)
	if err != nil {
		log.S(ctx).Fatalw("cannot init resolver", zap.Error(err))
	}

	reconciler := flaredns.NewReconciler(conf.Service.Hostname, conf.Service.Families(), resolver, provider)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := flaredns.Loop(ctx, reconciler.Run, time.Duration(conf.Service.Interval)); err != nil {
		log.S(ctx).Errorw("update cycle failed", zap.Error(err))
		os.Exit(1)
	}
}
