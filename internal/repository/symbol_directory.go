package repository

import (
	"bufio"
	"bytes"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"

	"etf-screener/pkg/logger"
)

var codePattern = regexp.MustCompile(`\d{6}`)

// SymbolDirectory maps 6-digit instrument codes to display names and doubles
// as the target-code filter for file discovery. It is read-only after load
// and safe to share across workers.
type SymbolDirectory struct {
	names map[string]string
}

// NewSymbolDirectory loads the code→name table from a delimited text file,
// tolerating UTF-8, GBK and UTF-16 encodings and an optional header line.
// A missing or unreadable file degrades to an empty directory.
func NewSymbolDirectory(path string, log *logger.Logger) *SymbolDirectory {
	dir := &SymbolDirectory{names: make(map[string]string)}

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn("Symbol file not loaded, display names unavailable",
			logger.StringField("path", path),
			logger.ErrorField(err),
		)
		return dir
	}

	text, ok := decodeText(raw)
	if !ok {
		log.Warn("Symbol file could not be decoded", logger.StringField("path", path))
		return dir
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		code, name, ok := parseSymbolLine(line)
		if !ok {
			continue // header or malformed line
		}
		dir.names[code] = name
	}

	log.Info("Symbol directory loaded", logger.IntField("symbols", len(dir.names)))
	return dir
}

// Name returns the display name for code, falling back to the code itself.
func (d *SymbolDirectory) Name(code string) string {
	if name, ok := d.names[code]; ok && name != "" {
		return name
	}
	return code
}

// Has reports whether code appears in the directory.
func (d *SymbolDirectory) Has(code string) bool {
	_, ok := d.names[code]
	return ok
}

// Empty reports whether the directory holds no symbols. An empty directory
// disables target filtering so every discovered file is analyzed.
func (d *SymbolDirectory) Empty() bool {
	return len(d.names) == 0
}

// Len returns the number of loaded symbols.
func (d *SymbolDirectory) Len() int {
	return len(d.names)
}

func parseSymbolLine(line string) (code, name string, ok bool) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == '\t' || r == ' '
	})
	if len(fields) == 0 {
		return "", "", false
	}

	first := strings.TrimSuffix(strings.TrimSpace(fields[0]), ".csv")
	code = codePattern.FindString(first)
	if code == "" {
		return "", "", false
	}
	if len(fields) > 1 {
		name = strings.TrimSpace(strings.Join(fields[1:], " "))
	}
	return code, name, true
}

// decodeText tries UTF-8 first, then GBK, then UTF-16, mirroring the
// encodings the symbol lists are distributed in. The GBK decoder never
// errors, it substitutes U+FFFD for undecodable bytes, so a UTF-16
// byte-order mark skips the GBK attempt and U+FFFD in a decoder's output
// disqualifies it.
func decodeText(raw []byte) (string, bool) {
	if utf8.Valid(raw) {
		return string(bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})), true
	}

	var decoders []encoding.Encoding
	if !bytes.HasPrefix(raw, []byte{0xFF, 0xFE}) && !bytes.HasPrefix(raw, []byte{0xFE, 0xFF}) {
		decoders = append(decoders, simplifiedchinese.GBK)
	}
	decoders = append(decoders, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM))

	for _, enc := range decoders {
		decoded, err := enc.NewDecoder().Bytes(raw)
		if err != nil || !utf8.Valid(decoded) {
			continue
		}
		if text := string(decoded); !strings.ContainsRune(text, utf8.RuneError) {
			return text, true
		}
	}
	return "", false
}
