package recall

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// sparseEntry 是稀疏矩阵的一个非零元：idx 是列号（CSR）或行号（CSC）。
type sparseEntry struct {
	idx   int
	value float64
}

// userItemMatrix 是用户×物品稀疏评分矩阵，同时保存行压缩（按用户）与列压缩（按物品）两种视图。
// 同一 (用户, 物品) 的重复评分累加。
type userItemMatrix struct {
	numUsers int
	numItems int
	byUser   [][]sparseEntry // CSR：每个用户的 (物品列, 评分)，按列号升序
	byItem   [][]sparseEntry // CSC：每个物品的 (用户行, 评分)，按行号升序
}

func newUserItemMatrix(numUsers, numItems int, rows, cols []int, values []float64) *userItemMatrix {
	m := &userItemMatrix{
		numUsers: numUsers,
		numItems: numItems,
		byUser:   make([][]sparseEntry, numUsers),
		byItem:   make([][]sparseEntry, numItems),
	}
	for k := range rows {
		m.byUser[rows[k]] = append(m.byUser[rows[k]], sparseEntry{idx: cols[k], value: values[k]})
	}
	for u, entries := range m.byUser {
		sort.SliceStable(entries, func(a, b int) bool { return entries[a].idx < entries[b].idx })
		merged := entries[:0]
		for _, e := range entries {
			if n := len(merged); n > 0 && merged[n-1].idx == e.idx {
				merged[n-1].value += e.value
				continue
			}
			merged = append(merged, e)
		}
		m.byUser[u] = merged
	}
	// 按用户行号升序扫描，保证 CSC 中行号有序
	for u, entries := range m.byUser {
		for _, e := range entries {
			m.byItem[e.idx] = append(m.byItem[e.idx], sparseEntry{idx: u, value: e.value})
		}
	}
	return m
}

// itemNorms 返回每个物品列的 L2 范数。
func (m *userItemMatrix) itemNorms() []float64 {
	norms := make([]float64, m.numItems)
	for i, entries := range m.byItem {
		s := 0.0
		for _, e := range entries {
			s += e.value * e.value
		}
		norms[i] = math.Sqrt(s)
	}
	return norms
}

// itemSimilarity 计算物品-物品余弦相似度矩阵。
//
// 行按 chunkSize 分块，每块在 errgroup 中通过稀疏累加独立计算并写入结果矩阵的对应行；
// 块之间行不相交，不需要加锁。最后把对角线置 0。
// 两个物品的点积只由共同用户贡献，且两侧都按用户行号升序累加，结果严格对称。
func itemSimilarity(ctx context.Context, m *userItemMatrix, chunkSize, workers int) (*mat.Dense, error) {
	n := m.numItems
	sim := mat.NewDense(n, n, nil)
	norms := m.itemNorms()

	if chunkSize <= 0 || chunkSize > n {
		chunkSize = n
	}
	eg, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		eg.SetLimit(workers)
	}
	for start := 0; start < n; start += chunkSize {
		start, end := start, min(start+chunkSize, n)
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				row := sim.RawRowView(i)
				for _, ue := range m.byItem[i] {
					for _, ie := range m.byUser[ue.idx] {
						row[ie.idx] += ue.value * ie.value
					}
				}
				if norms[i] == 0 {
					continue
				}
				for j, dot := range row {
					if dot == 0 || norms[j] == 0 {
						continue
					}
					row[j] = dot / (norms[i] * norms[j])
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		sim.Set(i, i, 0)
	}
	return sim, nil
}
