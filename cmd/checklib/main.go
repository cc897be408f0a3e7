// The checklib tool cross-references an iTunes Library XML export (or a
// plain directory tree) against the files on disk, reporting any file
// this module fails to decode or whose audio payload hash collides with
// another file's.
package main

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/itl"

	"github.com/go-tagkit/tagkit"
)

var itlXML, path string
var sum bool

func init() {
	flag.StringVar(&itlXML, "itlXML", "", "iTunes Library XML path")
	flag.StringVar(&path, "path", "", "path to a directory containing audio files")
	flag.BoolVar(&sum, "sum", false, "also compute each file's metadata-invariant hash")
}

func main() {
	flag.Parse()

	if itlXML == "" && path == "" || itlXML != "" && path != "" {
		fmt.Println("you must specify one of -itlXML or -path")
		flag.Usage()
		os.Exit(1)
	}

	var paths <-chan string
	if itlXML != "" {
		var err error
		paths, err = walkLibrary(itlXML)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	}
	if path != "" {
		paths = walkPath(path)
	}

	p := &processor{
		decodingErrors: make(map[string]int),
		hashErrors:     make(map[string]int),
		hashes:         make(map[string][]string),
	}
	p.do(paths)
	fmt.Println(p)
}

func decodeLocation(l string) (string, error) {
	u, err := url.ParseRequestURI(l)
	if err != nil {
		return "", err
	}
	// Annoyingly this doesn't replace &#38; (&)
	return strings.Replace(u.Path, "&#38;", "&", -1), nil
}

func walkPath(root string) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			ch <- path
			return nil
		})
		if err != nil {
			fmt.Println(err)
		}
	}()
	return ch
}

func walkLibrary(xmlPath string) (<-chan string, error) {
	f, err := os.Open(xmlPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	l, err := itl.ReadFromXML(f)
	if err != nil {
		return nil, err
	}

	paths := make(chan string)
	go func() {
		defer close(paths)
		for _, t := range l.Tracks {
			loc, err := decodeLocation(t.Location)
			if err != nil {
				fmt.Println(err)
				continue
			}
			paths <- loc
		}
	}()
	return paths, nil
}

type processor struct {
	decodingErrors map[string]int
	hashErrors     map[string]int
	hashes         map[string][]string // hash -> paths sharing it
}

func (p *processor) String() string {
	var b strings.Builder
	for k, v := range p.decodingErrors {
		fmt.Fprintf(&b, "decode error %q: %d file(s)\n", k, v)
	}
	for k, v := range p.hashErrors {
		fmt.Fprintf(&b, "hash error %q: %d file(s)\n", k, v)
	}
	for h, paths := range p.hashes {
		if len(paths) > 1 {
			fmt.Fprintf(&b, "duplicate audio payload %v: %v\n", h, paths)
		}
	}
	return b.String()
}

func (p *processor) do(ch <-chan string) {
	for path := range ch {
		func() {
			defer func() {
				if r := recover(); r != nil {
					fmt.Printf("panic at %v: %v\n", path, r)
					panic(r)
				}
			}()

			b, err := os.ReadFile(path)
			if err != nil {
				p.decodingErrors["error opening file"]++
				return
			}

			res := tagkit.Read(b, path)
			if !res.IsSuccess() {
				fmt.Println("READ:", path, res.Err)
				p.decodingErrors[res.Err.Error()]++
				return
			}

			if sum {
				h, err := tagkit.Hash(b)
				if err != nil {
					fmt.Println("HASH:", path, err)
					p.hashErrors[err.Error()]++
					return
				}
				p.hashes[h] = append(p.hashes[h], path)
			}
		}()
	}
}
