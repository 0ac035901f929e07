// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Command swipedict builds the binary corpus read by swipeserve.

The input is a word list with one "word frequency" pair per line, or an
existing binary corpus to re-encode. Duplicate spellings keep their highest
frequency and the output is ordered by frequency.

	swipedict -in words.txt -out en_dict.bin

With -append the corpus is added to the end of an existing container file
and the window to configure is printed:

	swipedict -in words.txt -out assets.pak -append
	[dict]
	path = "assets.pak"
	offset = 4096
	length = 812340
*/
package main

import (
	"bytes"
	"cmp"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/bastiangx/swipeserve/internal/logger"
	"github.com/bastiangx/swipeserve/pkg/dictionary"
	"github.com/charmbracelet/log"
)

func main() {
	in := flag.String("in", "", "Word list (.txt) or binary corpus to convert")
	out := flag.String("out", "en_dict.bin", "Output file")
	appendMode := flag.Bool("append", false, "Append to -out instead of replacing it")
	minFreq := flag.Int("min", 1, "Drop words below this frequency")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	flag.Parse()
	logger.Setup(*debugMode)

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	entries, err := readInput(*in)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *in, err)
	}
	entries = prepare(entries, *minFreq)
	log.Debugf("Encoding %d words", len(entries))

	var buf bytes.Buffer
	if err := dictionary.WriteCorpus(&buf, entries); err != nil {
		log.Fatalf("Failed to encode corpus: %v", err)
	}

	offset, err := writeOutput(*out, buf.Bytes(), *appendMode)
	if err != nil {
		log.Fatalf("Failed to write %s: %v", *out, err)
	}
	length := int64(buf.Len())
	if _, err := dictionary.ValidateFile(*out, offset, length); err != nil {
		log.Fatalf("Written corpus does not validate: %v", err)
	}

	fmt.Printf("[dict]\npath = %q\noffset = %d\nlength = %d\n", *out, offset, length)
	log.Infof("Wrote %d words", len(entries))
}

func readInput(path string) ([]dictionary.Entry, error) {
	format, err := dictionary.DetectFileFormat(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	log.Debugf("Reading %s as %s", path, format)
	if format == dictionary.FormatBinary {
		return dictionary.ReadCorpus(f)
	}
	return dictionary.ReadText(f)
}

// prepare merges duplicate spellings, drops rare words and orders the rest
// by frequency, then spelling.
func prepare(entries []dictionary.Entry, minFreq int) []dictionary.Entry {
	best := make(map[string]int, len(entries))
	for _, e := range entries {
		if f, ok := best[e.Word]; !ok || e.Frequency > f {
			best[e.Word] = e.Frequency
		}
	}
	out := make([]dictionary.Entry, 0, len(best))
	for w, f := range best {
		if f >= minFreq {
			out = append(out, dictionary.Entry{Word: w, Frequency: f})
		}
	}
	slices.SortFunc(out, func(a, b dictionary.Entry) int {
		if c := cmp.Compare(b.Frequency, a.Frequency); c != 0 {
			return c
		}
		return cmp.Compare(a.Word, b.Word)
	})
	return out
}

// writeOutput stores data and returns the offset it starts at.
func writeOutput(path string, data []byte, appendMode bool) (int64, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return 0, err
	}
	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return 0, err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return 0, err
	}
	return offset, f.Close()
}
