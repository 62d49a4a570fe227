// Command stigctl is the thin client that posts a YAML or Markdown batch
// file to a running stigd server's /apply endpoint. It is glue: every
// parsing and validation decision lives in package loader and package
// apply; this command only reads a file, decides JSON vs. Markdown vs.
// YAML by extension, and prints the server's response.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/stigctl/engine/apply"
	"github.com/stigctl/engine/loader"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "stigctl:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("stigctl", flag.ExitOnError)
	server := fs.String("server", "http://localhost:8080", "stigd base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: stigctl [-server url] <batch-file>")
	}

	path := fs.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	req, err := parseBatchFile(path, data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return postApply(*server, req)
}

func parseBatchFile(path string, data []byte) (apply.Request, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return loader.ParseMarkdown(data)
	case ".yaml", ".yml":
		return loader.ParseYAML(data)
	default:
		var req apply.Request
		if err := json.Unmarshal(data, &req); err != nil {
			return apply.Request{}, err
		}
		return req, nil
	}
}

func postApply(baseURL string, req apply.Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	resp, err := http.Post(strings.TrimRight(baseURL, "/")+"/apply", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}
