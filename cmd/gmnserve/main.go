// gmnserve is a prefork static-file Gemini server. Configuration comes from
// gmnserve.yaml in the working directory or /etc/gmnserve/:
//
//	listen: 0.0.0.0
//	port: 1965
//	workers: 4
//	cert_file: /etc/gmnserve/cert.pem
//	key_file: /etc/gmnserve/key.pem
//	root: /var/gemini
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gemkit/gemini"
	"github.com/gemkit/gemini/prefork"
)

func main() {
	viper.SetConfigName("gmnserve")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/gmnserve/")
	viper.AddConfigPath(".")
	viper.SetDefault("listen", "0.0.0.0")
	viper.SetDefault("port", 1965)
	viper.SetDefault("workers", prefork.DefaultWorkers)
	viper.SetDefault("root", "/var/gemini")
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "gmnserve: read config: %v\n", err)
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "gmnserve: init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sup := &prefork.Supervisor{
		Config: prefork.Config{
			Workers:  viper.GetInt("workers"),
			Addr:     viper.GetString("listen"),
			Port:     viper.GetInt("port"),
			CertFile: viper.GetString("cert_file"),
			KeyFile:  viper.GetString("key_file"),
		},
		Handler: fileHandler(viper.GetString("root")),
		Logger:  logger,
	}

	if !prefork.IsWorker() {
		logger.Info("starting",
			zap.Int("workers", viper.GetInt("workers")),
			zap.String("listen", viper.GetString("listen")),
			zap.Int("port", viper.GetInt("port")),
		)
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sig
			sup.Stop()
		}()
	}

	if err := sup.Run(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// fileHandler serves files beneath root. Directories redirect to their
// trailing-slash form, then serve index.gmi when present and a generated
// listing otherwise.
func fileHandler(root string) gemini.Handler {
	return func(req *gemini.Request) error {
		if strings.Contains(req.URL.Path, "..") {
			return req.RespondError("dots in path")
		}
		target := filepath.Join(root, filepath.FromSlash(req.URL.Path))

		info, err := os.Stat(target)
		if err != nil {
			return req.RespondNotFound("not found")
		}
		if !info.IsDir() {
			return sendFile(req, target)
		}
		if !strings.HasSuffix(req.URL.Path, "/") {
			u := req.URL
			u.Path += "/"
			return req.RespondRedirect(u.String(), true)
		}
		for _, index := range []string{"index.gmi", "index.gemini"} {
			p := filepath.Join(target, index)
			if _, err := os.Stat(p); err == nil {
				return sendFile(req, p)
			}
		}
		return sendListing(req, target)
	}
}

func sendFile(req *gemini.Request, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return req.RespondTempError("unable to read file")
	}
	return req.RespondBytes(gemini.DetectMimeType(path), data)
}

func sendListing(req *gemini.Request, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return req.RespondTempError("unable to list directory")
	}
	var b strings.Builder
	b.WriteString("# Directory Contents\r\n")
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		fmt.Fprintf(&b, "=> %s %s\r\n", e.Name(), e.Name())
	}
	return req.RespondSuccess("text/gemini", b.String())
}
