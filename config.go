package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/goccy/go-yaml"
)

const (
	defaultBinDir          = "~/.local/bin"
	defaultAPIURL          = "https://api.github.com"
	defaultDownloadURL     = "https://github.com"
	defaultOwner           = "cluttrdev"
	defaultArchiveTemplate = "{{ .Tool }}-{{ .Version }}-{{ .Target }}.tar.gz"
	defaultChecksumTool    = "auto"

	manifestName = "SHA256SUMS"
)

// Config holds the installer settings that may be given in a configuration
// file. Empty fields fall back to the built-in defaults.
type Config struct {
	BinDir          string `yaml:"binDir"`
	APIURL          string `yaml:"apiUrl"`
	DownloadURL     string `yaml:"downloadUrl"`
	Owner           string `yaml:"owner"`
	Token           string `yaml:"token"`
	ArchiveTemplate string `yaml:"archiveTemplate"`
	ChecksumTool    string `yaml:"checksumTool"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		BinDir:          defaultBinDir,
		APIURL:          defaultAPIURL,
		DownloadURL:     defaultDownloadURL,
		Owner:           defaultOwner,
		ArchiveTemplate: defaultArchiveTemplate,
		ChecksumTool:    defaultChecksumTool,
	}
}

// LoadConfig reads the configuration from a reader into `cfg`.
// Keys that are not present leave the corresponding fields untouched.
func LoadConfig(r io.Reader, cfg *Config) error {
	if r == nil {
		return nil
	}

	var file Config
	if err := yaml.NewDecoder(r, yaml.DisallowUnknownField()).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	cfg.merge(file)
	return nil
}

// LoadConfigFile reads the configuration file `name` into `cfg`.
func LoadConfigFile(name string, cfg *Config) error {
	file, err := os.Open(expandPath(name))
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()
	return LoadConfig(file, cfg)
}

// merge overwrites the fields of c with the non-empty fields of o.
func (c *Config) merge(o Config) {
	set := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	set(&c.BinDir, o.BinDir)
	set(&c.APIURL, o.APIURL)
	set(&c.DownloadURL, o.DownloadURL)
	set(&c.Owner, o.Owner)
	set(&c.Token, o.Token)
	set(&c.ArchiveTemplate, o.ArchiveTemplate)
	set(&c.ChecksumTool, o.ChecksumTool)
}

// ReleaseHost returns where release metadata and downloads are served from.
func (c *Config) ReleaseHost() ReleaseHost {
	return ReleaseHost{
		APIURL:      strings.TrimSuffix(c.APIURL, "/"),
		DownloadURL: strings.TrimSuffix(c.DownloadURL, "/"),
		Owner:       c.Owner,
		Token:       c.Token,
	}
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		path = filepath.Join("${HOME}", path[1:])
	}
	return os.ExpandEnv(path)
}

func renderTemplate(tmpl string, data any) (string, error) {
	tpl := template.New("").Option("missingkey=error")

	tpl = tpl.Funcs(template.FuncMap{
		"trimPrefix": func(prefix string, s string) string {
			return strings.TrimPrefix(s, prefix)
		},
	})

	tpl, err := tpl.Parse(tmpl)
	if err != nil {
		return "", err
	}

	var w bytes.Buffer
	if err := tpl.Execute(&w, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return w.String(), nil
}
