package catalog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rushteam/gameark/core"
	"github.com/rushteam/gameark/feature"
	"github.com/rushteam/gameark/pkg/conv"
	"github.com/rushteam/gameark/pkg/textenc"
)

// 目录 CSV 列名
const (
	ColID            = "ID"
	ColName          = "Name"
	ColYear          = "Year Published"
	ColMinPlayers    = "Min Players"
	ColMaxPlayers    = "Max Players"
	ColPlayTime      = "Play Time"
	ColMinAge        = "Min Age"
	ColUsersRated    = "Users Rated"
	ColRatingAverage = "Rating Average"
	ColComplexity    = "Complexity"
	ColMechanics     = "Mechanics"
	ColDomains       = "Domains"
)

// 列名别名，兼容公开 BGG 数据集的原始表头
var columnAliases = map[string]string{
	"Complexity Average": ColComplexity,
	"BGGId":              ColID,
}

type options struct {
	encodings []string
	comma     rune
	logger    zerolog.Logger
}

// Option 配置目录加载。
type Option func(*options)

// WithEncodings 设置编码尝试顺序。
func WithEncodings(names ...string) Option {
	return func(o *options) { o.encodings = names }
}

// WithComma 设置字段分隔符，默认 ','。
func WithComma(r rune) Option {
	return func(o *options) {
		if r != 0 {
			o.comma = r
		}
	}
}

// WithLogger 设置日志。
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// LoadFile 从文件加载目录。
func LoadFile(path string, opts ...Option) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.NewDataLoadError(core.ModuleCatalog, "catalog: open "+path, err)
	}
	defer f.Close()
	return Load(f, opts...)
}

// Load 读取目录 CSV 并构建索引。
//
// 文本按编码顺序尝试解码；缺少 ID 或 Name 列、无可用编码、没有可用行都会返回 DATA_LOAD 错误。
// 名称为空或 ID 无法解析的行被丢弃；重复 ID 保留第一次出现的行。
func Load(r io.Reader, opts ...Option) (*Index, error) {
	o := options{
		encodings: textenc.DefaultOrder,
		comma:     ',',
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, core.NewDataLoadError(core.ModuleCatalog, "catalog: read input", err)
	}
	text, encoding, err := textenc.Decode(raw, o.encodings)
	if err != nil {
		return nil, core.NewDataLoadError(core.ModuleCatalog, "catalog: decode input", err)
	}

	cr := csv.NewReader(bytes.NewReader(text))
	cr.Comma = o.comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, core.NewDataLoadError(core.ModuleCatalog, "catalog: read header", err)
	}
	cols := columnIndex(header)
	for _, required := range []string{ColID, ColName} {
		if _, ok := cols[required]; !ok {
			return nil, core.NewDataLoadError(core.ModuleCatalog,
				fmt.Sprintf("catalog: required column %q is missing", required), nil)
		}
	}

	var (
		rows       []rawRow
		seen       = make(map[int64]struct{})
		line       = 1
		skipped    int
		duplicates int
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				skipped++
				continue
			}
			return nil, core.NewDataLoadError(core.ModuleCatalog, "catalog: read row", err)
		}
		row, ok := parseRow(rec, cols)
		if !ok {
			skipped++
			continue
		}
		if _, dup := seen[row.game.ID]; dup {
			duplicates++
			o.logger.Warn().Int64("id", row.game.ID).Int("line", line).Msg("duplicate catalog id dropped")
			continue
		}
		seen[row.game.ID] = struct{}{}
		rows = append(rows, row)
	}

	idx, err := build(rows, encoding)
	if err != nil {
		return nil, err
	}
	o.logger.Info().
		Int("games", idx.Len()).
		Int("dim", idx.Space().Dim()).
		Int("skipped", skipped).
		Int("duplicates", duplicates).
		Str("encoding", encoding).
		Msg("catalog loaded")
	return idx, nil
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if alias, ok := columnAliases[name]; ok {
			if _, exists := cols[alias]; !exists {
				cols[alias] = i
			}
			continue
		}
		cols[name] = i
	}
	return cols
}

func field(rec []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseRow(rec []string, cols map[string]int) (rawRow, bool) {
	name := field(rec, cols, ColName)
	if name == "" {
		return rawRow{}, false
	}
	id, ok := conv.ParseInt64(field(rec, cols, ColID))
	if !ok {
		return rawRow{}, false
	}

	g := &core.Game{
		ID:        id,
		Name:      name,
		Mechanics: SplitList(field(rec, cols, ColMechanics)),
		Domains:   SplitList(field(rec, cols, ColDomains)),
	}
	g.MechanismCategories = core.CategoriesOf(g.Mechanics)
	if v, ok := conv.ParseFloat(field(rec, cols, ColRatingAverage)); ok {
		g.Rating, g.HasRating = v, true
	}
	if v, ok := conv.ParseInt64(field(rec, cols, ColUsersRated)); ok {
		g.UsersRated = v
	}
	if v, ok := conv.ParseInt64(field(rec, cols, ColYear)); ok {
		g.Year, g.HasYear = int(v), true
	}

	row := rawRow{
		game:    g,
		numeric: make([]float64, feature.NumericWidth),
		present: make([]bool, feature.NumericWidth),
	}
	for j, col := range feature.NumericColumns {
		row.numeric[j], row.present[j] = conv.ParseFloat(field(rec, cols, col))
	}
	return row, true
}

// SplitList 按逗号切分多值字段，去空白并丢弃空项，保持原顺序并去重。
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
