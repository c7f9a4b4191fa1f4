package recall

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rushteam/gameark/core"
	"github.com/rushteam/gameark/pkg/conv"
)

// 评分 CSV 列名
const (
	ColUsername = "Username"
	ColBGGID    = "BGGId"
	ColRating   = "Rating"
)

// Rating 是一条 (用户, 游戏, 评分) 记录，评分严格为正。
type Rating struct {
	User  string
	Item  int64
	Value float64
}

// ratingReadStats 记录读取过程中的丢弃情况，用于日志。
type ratingReadStats struct {
	Rows    int
	Dropped int
	Chunks  int
}

// ReadRatings 按块流式读取评分 CSV：每块最多 chunkRows 行，丢弃不完整、无法解析
// 以及评分 <= 0 的行，清洗后的块依次拼接。缺少必需列返回 DATA_LOAD 错误。
func ReadRatings(ctx context.Context, r io.Reader, chunkRows int) ([]Rating, error) {
	out, _, err := readRatings(ctx, r, chunkRows)
	return out, err
}

func readRatings(ctx context.Context, r io.Reader, chunkRows int) ([]Rating, ratingReadStats, error) {
	var stats ratingReadStats
	if chunkRows <= 0 {
		chunkRows = 50000
	}

	cr := csv.NewReader(bufio.NewReaderSize(r, 1<<20))
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, stats, nil
	}
	if err != nil {
		return nil, stats, core.NewDataLoadError(core.ModuleCF, "cf: read ratings header", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
	}
	for _, required := range []string{ColUsername, ColBGGID, ColRating} {
		if _, ok := cols[required]; !ok {
			return nil, stats, core.NewDataLoadError(core.ModuleCF,
				fmt.Sprintf("cf: required ratings column %q is missing", required), nil)
		}
	}
	userCol, itemCol, ratingCol := cols[ColUsername], cols[ColBGGID], cols[ColRating]

	var all []Rating
	chunk := make([]Rating, 0, chunkRows)
	flush := func() {
		all = append(all, chunk...)
		chunk = chunk[:0]
		stats.Chunks++
	}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				stats.Rows++
				stats.Dropped++
				continue
			}
			return nil, stats, core.NewDataLoadError(core.ModuleCF, "cf: read ratings", err)
		}
		stats.Rows++
		rt, ok := parseRating(rec, userCol, itemCol, ratingCol)
		if !ok {
			stats.Dropped++
			continue
		}
		chunk = append(chunk, rt)
		if len(chunk) == chunkRows {
			flush()
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}
	}
	if len(chunk) > 0 {
		flush()
	}
	return all, stats, nil
}

func parseRating(rec []string, userCol, itemCol, ratingCol int) (Rating, bool) {
	if userCol >= len(rec) || itemCol >= len(rec) || ratingCol >= len(rec) {
		return Rating{}, false
	}
	user := strings.TrimSpace(rec[userCol])
	if user == "" {
		return Rating{}, false
	}
	item, ok := conv.ParseInt64(rec[itemCol])
	if !ok {
		return Rating{}, false
	}
	value, ok := conv.ParseFloat(rec[ratingCol])
	if !ok || value <= 0 {
		return Rating{}, false
	}
	// 拷贝用户名，避免子串持有整行记录
	return Rating{User: strings.Clone(user), Item: item, Value: value}, true
}
