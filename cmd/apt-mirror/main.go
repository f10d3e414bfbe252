// Command apt-mirror mirrors APT repositories described by a manifest file,
// and can scan a repository for its distributions.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/etnz/apt-mirror/apt"
	"github.com/etnz/apt-mirror/manifest"
	"github.com/etnz/apt-mirror/transport"
)

func main() {
	manifestPath := flag.String("manifest", "", "path to a mirror job file (YAML or JSON)")
	scanURI := flag.String("scan", "", "base URI of a repository to scan for distributions")
	flag.Parse()

	switch {
	case *scanURI != "":
		if err := scan(*scanURI); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case *manifestPath != "":
		if err := mirror(*manifestPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func scan(uri string) error {
	repo, err := apt.NewRepository(uri)
	if err != nil {
		return err
	}

	ok, err := repo.ScanDistributions()
	if err != nil {
		return err
	}
	if !ok {
		// A plain HTTP server cannot list; retry through Apache auto-index
		// pages before giving up.
		repo.Transport = transport.NewApache()
		if ok, err = repo.ScanDistributions(); err != nil {
			return err
		}
	}
	if !ok {
		return fmt.Errorf("repository at %s does not support listing", uri)
	}

	for _, name := range repo.Distributions() {
		fmt.Println(name)
	}
	return nil
}

func mirror(path string) error {
	job, err := manifest.Load(path)
	if err != nil {
		return err
	}

	fmt.Printf("Mirroring %s -> %s\n", job.Source, job.Target)
	report, err := job.Run()
	if err != nil {
		return err
	}
	fmt.Printf("Done: %d package lists, %d packages adopted\n", report.Lists, report.Adopted)
	return nil
}
