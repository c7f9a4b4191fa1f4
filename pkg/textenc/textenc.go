// Package textenc 按候选编码顺序解码文本文件，第一种能无错解码的编码胜出。
package textenc

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

// DefaultOrder 是默认的编码尝试顺序。utf-8 严格校验排在最前，
// 单字节编码几乎总能解码成功，所以只作为回退。
var DefaultOrder = []string{"utf-8", "windows-1252", "iso-8859-1"}

var registry = map[string]encoding.Encoding{
	"utf-8":        unicode.UTF8,
	"utf8":         unicode.UTF8,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"latin-1":      charmap.ISO8859_1,
	"gb18030":      simplifiedchinese.GB18030,
	"gbk":          simplifiedchinese.GBK,
}

// Supported 判断编码名是否可用（大小写不敏感）。
func Supported(name string) bool {
	_, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Decode 依次尝试 order 中的编码，返回 UTF-8 文本与实际使用的编码名。
// order 为空时使用 DefaultOrder。全部失败时返回最后一个错误。
func Decode(raw []byte, order []string) ([]byte, string, error) {
	if len(order) == 0 {
		order = DefaultOrder
	}
	var lastErr error
	for _, name := range order {
		out, err := decodeAs(raw, name)
		if err == nil {
			return out, strings.ToLower(name), nil
		}
		lastErr = err
	}
	return nil, "", fmt.Errorf("textenc: no candidate encoding decoded the input: %w", lastErr)
}

func decodeAs(raw []byte, name string) ([]byte, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	enc, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("textenc: unknown encoding %q", name)
	}
	if key == "utf-8" || key == "utf8" {
		if !utf8.Valid(raw) {
			return nil, fmt.Errorf("textenc: input is not valid utf-8")
		}
		return bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf")), nil
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("textenc: decode %s: %w", key, err)
	}
	// 未定义码位会被替换为 U+FFFD，视为解码失败。
	if bytes.ContainsRune(out, utf8.RuneError) {
		return nil, fmt.Errorf("textenc: %s has undefined code points in input", key)
	}
	return out, nil
}
