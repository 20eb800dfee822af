// gmnfetch fetches a single Gemini URL and writes the body to stdout.
package main

import (
	"crypto/tls"
	"flag"
	"fmt"
	"os"

	"github.com/gemkit/gemini"
)

func main() {
	maxRedirects := flag.Int("r", gemini.DefaultMaxRedirects, "maximum redirects to follow")
	noRedirect := flag.Bool("R", false, "do not follow redirects")
	headerOnly := flag.Bool("I", false, "print the response header only")
	certFile := flag.String("cert", "", "client certificate file (PEM)")
	keyFile := flag.String("key", "", "client key file (PEM)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: gmnfetch [options] gemini://host/path")
		os.Exit(2)
	}

	client := &gemini.Client{MaxRedirects: *maxRedirects}
	if *certFile != "" {
		cert, err := tls.LoadX509KeyPair(*certFile, *keyFile)
		if err != nil {
			fatalf("load client certificate: %v", err)
		}
		client.Certificate = &cert
	}

	var (
		resp *gemini.Response
		err  error
	)
	if *noRedirect {
		resp, err = client.RequestNoRedirect(flag.Arg(0))
	} else {
		resp, err = client.Request(flag.Arg(0))
	}
	if err != nil {
		fatalf("%v", err)
	}
	defer resp.Close()

	if *headerOnly || !resp.IsSuccess() {
		fmt.Printf("%d %s\n", resp.Status, resp.Meta)
		if resp.IsFailure() {
			os.Exit(1)
		}
		return
	}

	body, err := resp.Body()
	if err != nil {
		fatalf("read body: %v", err)
	}
	os.Stdout.Write(body)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "gmnfetch: "+format+"\n", args...)
	os.Exit(1)
}
