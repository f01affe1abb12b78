// Command quizcli takes a generated quiz in the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"studyquiz/internal/client"
	"studyquiz/internal/config"
	"studyquiz/internal/logger"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func loadSettings(args []string) (*viper.Viper, error) {
	fs := pflag.NewFlagSet("quizcli", pflag.ContinueOnError)
	fs.String("server", "http://localhost:8090", "quiz API base URL")
	fs.Duration("timeout", 0, "request timeout (default 60s)")
	fs.String("subject", "", "quiz subject")
	fs.String("grade", "", "grade level")
	fs.String("materials", "", "study materials text")
	fs.String("materials-file", "", "read study materials from a file")
	fs.String("mode", "standard", "display mode: standard or flashcard")
	fs.String("log-level", "warn", "log level")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	v.SetEnvPrefix("QUIZCLI")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v, nil
}

func main() {
	v, err := loadSettings(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := logger.Initialize(config.LoggerConfig{Env: "development", Level: v.GetString("log-level")}, logger.WithOutput(os.Stderr)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	input := formInput{
		Subject:    v.GetString("subject"),
		GradeLevel: v.GetString("grade"),
		Materials:  v.GetString("materials"),
		StudyMode:  v.GetString("mode"),
	}
	if path := v.GetString("materials-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read materials: %v\n", err)
			os.Exit(1)
		}
		input.Materials = string(data)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := client.New(v.GetString("server"), v.GetDuration("timeout"))
	r := newRunner(api, os.Stdin, os.Stdout)
	if err := r.Run(ctx, input); err != nil {
		logger.Get().Error("quiz session failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		stop()
		_ = logger.Sync()
		os.Exit(1)
	}
}
