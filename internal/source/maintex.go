package source

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var ErrMainNotFound = errors.New("no main .tex file found")

type readme struct {
	Sources []struct {
		Filename string `json:"filename"`
		Usage    string `json:"usage"`
	} `json:"sources"`
}

// FindMainTex returns the main document of an extracted bundle. The
// toplevel entry of 00README.json wins, then main.tex, then the first .tex
// file in name order that declares a document class.
func FindMainTex(dir string) (string, error) {
	if p := readmeToplevel(dir); p != "" {
		return p, nil
	}

	if p := filepath.Join(dir, "main.tex"); isFile(p) {
		return p, nil
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "*.tex"))
	sort.Strings(matches)
	for _, p := range matches {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if strings.Contains(string(data), `\documentclass`) {
			return p, nil
		}
	}
	return "", ErrMainNotFound
}

func readmeToplevel(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "00README.json"))
	if err != nil {
		return ""
	}
	var rm readme
	if err := json.Unmarshal(data, &rm); err != nil {
		return ""
	}
	for _, s := range rm.Sources {
		if s.Usage != "toplevel" || s.Filename == "" {
			continue
		}
		if p := filepath.Join(dir, filepath.FromSlash(s.Filename)); isFile(p) {
			return p
		}
	}
	return ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
