package utils

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DecodeFileContent декодирует загруженный файл: UTF-8, затем Windows-1251,
// затем Latin-1, который принимает любой байтовый поток
func DecodeFileContent(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}

	if decoded, err := charmap.Windows1251.NewDecoder().Bytes(data); err == nil {
		return string(decoded)
	}

	decoded, _ := charmap.ISO8859_1.NewDecoder().Bytes(data)
	return string(decoded)
}
