package dictionary

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

// FileFormat identifies a corpus source file.
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatBinary             // binary corpus
	FormatText               // "word frequency" lines
)

func (f FileFormat) String() string {
	switch f {
	case FormatBinary:
		return "binary"
	case FormatText:
		return "text"
	}
	return "unknown"
}

// MaxCorpusWords is the sanity bound on the header word count.
const MaxCorpusWords = 1000000

// ValidateHeader rejects implausible word counts.
func ValidateHeader(count int32) error {
	if count < 0 {
		return fmt.Errorf("%w: negative word count %d", ErrCorrupt, count)
	}
	if count > MaxCorpusWords {
		return fmt.Errorf("%w: suspicious word count %d (max %d)", ErrCorrupt, count, MaxCorpusWords)
	}
	return nil
}

// ReadCorpus decodes a binary corpus.
func ReadCorpus(r io.Reader) ([]Entry, error) {
	br := bufio.NewReader(r)

	var count int32
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %v", ErrCorrupt, err)
	}
	if err := ValidateHeader(count); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, count)
	for i := 0; i < int(count); i++ {
		var wordLen uint16
		if err := binary.Read(br, binary.LittleEndian, &wordLen); err != nil {
			return nil, fmt.Errorf("%w: entry %d: failed to read word length: %v", ErrCorrupt, i, err)
		}
		wordBytes := make([]byte, wordLen)
		if _, err := io.ReadFull(br, wordBytes); err != nil {
			return nil, fmt.Errorf("%w: entry %d: failed to read word: %v", ErrCorrupt, i, err)
		}
		if !utf8.Valid(wordBytes) {
			return nil, fmt.Errorf("%w: entry %d is not valid UTF-8", ErrCorrupt, i)
		}
		var freq uint32
		if err := binary.Read(br, binary.LittleEndian, &freq); err != nil {
			return nil, fmt.Errorf("%w: entry %d: failed to read frequency: %v", ErrCorrupt, i, err)
		}
		entries = append(entries, Entry{Word: string(wordBytes), Frequency: int(freq)})
	}
	return entries, nil
}

// WriteCorpus encodes entries in the binary corpus format.
func WriteCorpus(w io.Writer, entries []Entry) error {
	if len(entries) > MaxCorpusWords {
		return fmt.Errorf("too many words: %d (max %d)", len(entries), MaxCorpusWords)
	}
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, int32(len(entries))); err != nil {
		return err
	}
	for _, e := range entries {
		if e.Word == "" || len(e.Word) > math.MaxUint16 {
			return fmt.Errorf("invalid word length %d for %q", len(e.Word), e.Word)
		}
		if e.Frequency < 0 || int64(e.Frequency) > math.MaxUint32 {
			return fmt.Errorf("frequency %d out of range for %q", e.Frequency, e.Word)
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(len(e.Word))); err != nil {
			return err
		}
		if _, err := bw.WriteString(e.Word); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint32(e.Frequency)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadText parses "word frequency" lines. Blank lines and lines starting
// with '#' are skipped; a missing frequency counts as 1.
func ReadText(r io.Reader) ([]Entry, error) {
	var entries []Entry
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		e := Entry{Word: fields[0], Frequency: 1}
		if len(fields) > 1 {
			freq, err := strconv.Atoi(fields[1])
			if err != nil || freq < 0 {
				return nil, fmt.Errorf("line %d: invalid frequency %q", line, fields[1])
			}
			e.Frequency = freq
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// DetectFileFormat guesses the format of filename from its extension and,
// for binary files, its header.
func DetectFileFormat(filename string) (FileFormat, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".tsv":
		return FormatText, nil
	case ".bin", ".dict", ".png":
		if _, err := ValidateFile(filename, 0, 0); err != nil {
			return FormatUnknown, err
		}
		return FormatBinary, nil
	}
	return FormatUnknown, fmt.Errorf("unable to detect format for file %s", filename)
}

// ValidateFile checks the header of the corpus stored at
// [offset, offset+length) of filename and returns its word count. A length
// of zero or less means "to the end of the file".
func ValidateFile(filename string, offset, length int64) (int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	length, err = resolveLength(file, offset, length)
	if err != nil {
		return 0, err
	}
	if length < 4 {
		return 0, fmt.Errorf("%w: %s is too small (%d bytes)", ErrCorrupt, filename, length)
	}

	var count int32
	sr := io.NewSectionReader(file, offset, length)
	if err := binary.Read(sr, binary.LittleEndian, &count); err != nil {
		return 0, fmt.Errorf("%w: failed to read header from %s: %v", ErrCorrupt, filename, err)
	}
	if err := ValidateHeader(count); err != nil {
		return 0, err
	}
	log.Debugf("Corpus %s validated: %d words", filename, count)
	return int(count), nil
}

type sizer interface {
	Size() int64
}

type statter interface {
	Stat() (os.FileInfo, error)
}

// resolveLength turns a non-positive length into "rest of r after offset".
func resolveLength(r io.ReaderAt, offset, length int64) (int64, error) {
	if offset < 0 {
		return 0, fmt.Errorf("negative corpus offset %d", offset)
	}
	if length > 0 {
		return length, nil
	}
	var size int64
	switch v := r.(type) {
	case sizer:
		size = v.Size()
	case statter:
		fi, err := v.Stat()
		if err != nil {
			return 0, err
		}
		size = fi.Size()
	default:
		return 0, ErrUnknownLength
	}
	if offset > size {
		return 0, fmt.Errorf("corpus offset %d beyond end of data (%d bytes)", offset, size)
	}
	return size - offset, nil
}
